package verlet

import (
	"fmt"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/util"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/pkg/errors"
)

var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidConfig    = errors.New("invalid integrator config")
)

// Particle carries its velocity implicitly as Position - OldPosition.
// InvMass zero marks an immovable particle.
type Particle struct {
	InvMass     fixed.Fixed       `json:"inv_mass"`
	Position    vecmath.FixedVec3 `json:"position"`
	OldPosition vecmath.FixedVec3 `json:"old_position"`
	Force       vecmath.FixedVec3 `json:"force"`
	IsActive    bool              `json:"active"`
}

func (p Particle) Velocity() vecmath.FixedVec3 {
	return p.Position.Sub(p.OldPosition)
}

func (p Particle) IsImmovable() bool { return p.InvMass.IsZero() }

type Config struct {
	TimeStep  fixed.Fixed       `json:"time_step"`
	Gravity   vecmath.FixedVec3 `json:"gravity"`
	BoundsMin vecmath.FixedVec3 `json:"bounds_min"`
	BoundsMax vecmath.FixedVec3 `json:"bounds_max"`
}

func DefaultConfig() Config {
	step, _ := fixed.FromFraction(1, 60)
	return Config{
		TimeStep:  step,
		Gravity:   vecmath.FixedV3(0, -10, 0),
		BoundsMin: vecmath.FixedV3(0, 0, 0),
		BoundsMax: vecmath.FixedV3(1000, 1000, 1000),
	}
}

func (c Config) Validate() error {
	if c.TimeStep.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "time step %s must be positive", c.TimeStep)
	}
	for i := 0; i < 3; i++ {
		if c.BoundsMax.Axis(i).Less(c.BoundsMin.Axis(i)) {
			return errors.Wrapf(ErrInvalidConfig, "bounds min %v exceed max %v", c.BoundsMin, c.BoundsMax)
		}
	}
	return nil
}

// ForceContributor adds to Particle.Force of active particles.
// Forces are reset to zero before the first contributor runs.
type ForceContributor interface {
	Accumulate(particles []Particle)
}

type ForceFunc func(particles []Particle)

func (f ForceFunc) Accumulate(particles []Particle) { f(particles) }

// Constraint moves active particles after integration. Implementations must
// be idempotent: applying one twice without integrating in between is a no-op.
type Constraint interface {
	Satisfy(particles []Particle)
}

type ConstraintFunc func(particles []Particle)

func (f ConstraintFunc) Satisfy(particles []Particle) { f(particles) }

// BoxConstraint clamps positions componentwise into [Min, Max].
type BoxConstraint struct {
	Min, Max vecmath.FixedVec3
}

func (b BoxConstraint) Satisfy(particles []Particle) {
	for i := range particles {
		p := &particles[i]
		if !p.IsActive {
			continue
		}
		p.Position = p.Position.Clamp(b.Min, b.Max)
	}
}

// System integrates a fixed-capacity pool of particles indexed by entity slot.
type System struct {
	pool         []Particle
	config       Config
	contributors []ForceContributor
	constraints  []Constraint
}

// NewSystem preallocates capacity slots. The box constraint from cfg is
// registered first; constraints added later run after it, in order.
func NewSystem(capacity int, cfg Config) (*System, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "capacity %d", capacity)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &System{
		pool:        make([]Particle, capacity),
		config:      cfg,
		constraints: []Constraint{BoxConstraint{Min: cfg.BoundsMin, Max: cfg.BoundsMax}},
	}, nil
}

func (s *System) Config() Config { return s.config }
func (s *System) Capacity() int  { return len(s.pool) }

func (s *System) AddForceContributor(c ForceContributor) {
	s.contributors = append(s.contributors, c)
}

func (s *System) AddConstraint(c Constraint) {
	s.constraints = append(s.constraints, c)
}

func (s *System) checkSlot(slot int) error {
	if slot < 0 || slot >= len(s.pool) {
		util.LogIntegratorError(fmt.Sprintf("particle slot %d outside capacity %d", slot, len(s.pool)))
		return errors.Wrapf(ErrCapacityExceeded, "particle slot %d of %d", slot, len(s.pool))
	}
	return nil
}

// Spawn activates slot with the given state; OldPosition becomes position - velocity.
func (s *System) Spawn(slot int, position, velocity vecmath.FixedVec3, invMass fixed.Fixed) error {
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	s.pool[slot] = Particle{
		InvMass:     invMass,
		Position:    position,
		OldPosition: position.Sub(velocity),
		IsActive:    true,
	}
	return nil
}

// Add spawns into the lowest free slot and returns it.
func (s *System) Add(position, velocity vecmath.FixedVec3, invMass fixed.Fixed) (int, error) {
	for slot := range s.pool {
		if !s.pool[slot].IsActive {
			return slot, s.Spawn(slot, position, velocity, invMass)
		}
	}
	util.LogIntegratorWarning(fmt.Sprintf("particle pool full (%d)", len(s.pool)))
	return -1, errors.Wrapf(ErrCapacityExceeded, "all %d particle slots in use", len(s.pool))
}

// Set overwrites a slot verbatim, e.g. when restoring a snapshot.
func (s *System) Set(slot int, p Particle) error {
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	s.pool[slot] = p
	return nil
}

func (s *System) Despawn(slot int) {
	if slot < 0 || slot >= len(s.pool) {
		return
	}
	s.pool[slot] = Particle{}
}

func (s *System) Particle(slot int) (Particle, bool) {
	if slot < 0 || slot >= len(s.pool) {
		return Particle{}, false
	}
	p := s.pool[slot]
	return p, p.IsActive
}

// Particles exposes the pool; inactive slots are included.
func (s *System) Particles() []Particle { return s.pool }

func (s *System) ActiveCount() int {
	n := 0
	for i := range s.pool {
		if s.pool[i].IsActive {
			n++
		}
	}
	return n
}

func (s *System) Step() {
	s.AccumulateForces()
	s.Integrate()
	s.SatisfyConstraints()
	if util.LogEnabled(util.LogIntegrator, util.LogLevelDebug) {
		util.LogIntegratorDebug(fmt.Sprintf("stepped %d particles with %d contributors, %d constraints",
			s.ActiveCount(), len(s.contributors), len(s.constraints)))
	}
}

func (s *System) AccumulateForces() {
	for i := range s.pool {
		s.pool[i].Force = vecmath.FixedVec3{}
	}
	for _, c := range s.contributors {
		c.Accumulate(s.pool)
	}
}

// Integrate applies new = p + (p - old) + (gravity + force*invMass)*dt² to
// movable particles. Gravity is an acceleration and ignores mass.
func (s *System) Integrate() {
	dt := s.config.TimeStep
	for i := range s.pool {
		p := &s.pool[i]
		if !p.IsActive || p.IsImmovable() {
			continue
		}
		accel := s.config.Gravity.Add(p.Force.Scale(p.InvMass))
		next := p.Position.Add(p.Velocity()).Add(accel.Scale(dt).Scale(dt))
		p.OldPosition = p.Position
		p.Position = next
	}
}

func (s *System) SatisfyConstraints() {
	for _, c := range s.constraints {
		c.Satisfy(s.pool)
	}
}
