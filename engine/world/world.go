package world

import (
	"fmt"

	"github.com/memmaker/lockstep/engine/collision"
	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/util"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/memmaker/lockstep/engine/verlet"
	"github.com/pkg/errors"
)

var ErrCapacityExceeded = verlet.ErrCapacityExceeded

// Contact is one overlapping pair; A < B and the normal points from A to B.
type Contact struct {
	A, B     int
	Manifold collision.Manifold
}

// Simulation owns all per-entity state for a lockstep session. Entities are
// slots 0..MaxEntities-1; a slot may carry a shape, a particle, or both.
// When both are present the shape follows the particle's position.
type Simulation struct {
	config    Config
	shapes    []collision.Shape
	particles *verlet.System
	contacts  []Contact
	tick      uint64
}

func NewSimulation(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	particles, err := verlet.NewSystem(cfg.MaxEntities, cfg.Integrator())
	if err != nil {
		return nil, err
	}
	return &Simulation{
		config:    cfg,
		shapes:    make([]collision.Shape, cfg.MaxEntities),
		particles: particles,
		contacts:  make([]Contact, 0, cfg.MaxContacts),
	}, nil
}

func (s *Simulation) Config() Config            { return s.config }
func (s *Simulation) Particles() *verlet.System { return s.particles }
func (s *Simulation) Shapes() []collision.Shape { return s.shapes }
func (s *Simulation) Tick() uint64              { return s.tick }
func (s *Simulation) SetTick(tick uint64)       { s.tick = tick }
func (s *Simulation) LastContacts() []Contact   { return s.contacts }

func (s *Simulation) AddConstraint(c verlet.Constraint) {
	s.particles.AddConstraint(c)
}

func (s *Simulation) AddForceContributor(c verlet.ForceContributor) {
	s.particles.AddForceContributor(c)
}

func (s *Simulation) checkEntity(e int) error {
	if e < 0 || e >= len(s.shapes) {
		util.LogWorldError(fmt.Sprintf("entity %d outside capacity %d", e, len(s.shapes)))
		return errors.Wrapf(ErrCapacityExceeded, "entity %d of %d", e, len(s.shapes))
	}
	return nil
}

// SetShape assigns shape to entity e, keeping the shape's own transform.
func (s *Simulation) SetShape(e int, shape collision.Shape) error {
	if err := s.checkEntity(e); err != nil {
		return err
	}
	if err := shape.Validate(); err != nil {
		return errors.Wrapf(err, "entity %d", e)
	}
	s.shapes[e] = shape
	return nil
}

func (s *Simulation) RemoveShape(e int) {
	if e >= 0 && e < len(s.shapes) {
		s.shapes[e] = collision.Shape{}
	}
}

func (s *Simulation) Shape(e int) (collision.Shape, bool) {
	if e < 0 || e >= len(s.shapes) {
		return collision.Shape{}, false
	}
	return s.shapes[e], s.shapes[e].Kind() != collision.KindNone
}

func (s *Simulation) UpdateTransform(e int, t vecmath.Transform) error {
	if err := s.checkEntity(e); err != nil {
		return err
	}
	if s.shapes[e].Kind() == collision.KindNone {
		return errors.Wrapf(collision.ErrInvalidShape, "entity %d has no shape", e)
	}
	s.shapes[e].UpdateTransform(t)
	return nil
}

func (s *Simulation) SpawnParticle(e int, position, velocity vecmath.FixedVec3, invMass fixed.Fixed) error {
	return s.particles.Spawn(e, position, velocity, invMass)
}

// Despawn clears both the shape and the particle of e.
func (s *Simulation) Despawn(e int) {
	s.RemoveShape(e)
	s.particles.Despawn(e)
}

// Step advances one tick: shapes follow their particles, pairs (i, j) with
// i < j are tested in ascending order, then particles are integrated.
// The returned slice is reused by the next Step.
//
// On error the tick and the particles are unchanged and LastContacts is
// empty. Shapes stay synced to the particle positions, so retrying after
// raising capacity sees the same geometry.
func (s *Simulation) Step() ([]Contact, error) {
	s.syncShapes()
	if err := s.DetectContacts(); err != nil {
		s.contacts = s.contacts[:0]
		return nil, err
	}
	s.particles.Step()
	s.tick++
	if util.LogEnabled(util.LogWorld, util.LogLevelDebug) {
		util.LogWorldDebug(fmt.Sprintf("tick %d: %d contacts", s.tick, len(s.contacts)))
	}
	return s.contacts, nil
}

func (s *Simulation) syncShapes() {
	for e, p := range s.particles.Particles() {
		if !p.IsActive || s.shapes[e].Kind() == collision.KindNone {
			continue
		}
		t := s.shapes[e].WorldSpaceTransform()
		s.shapes[e].UpdateTransform(t.WithPosition(p.Position))
	}
}

// DetectContacts fills the contact buffer for the current shape state.
func (s *Simulation) DetectContacts() error {
	s.contacts = s.contacts[:0]
	for i := range s.shapes {
		a := &s.shapes[i]
		if a.Kind() == collision.KindNone {
			continue
		}
		for j := i + 1; j < len(s.shapes); j++ {
			b := &s.shapes[j]
			if b.Kind() == collision.KindNone {
				continue
			}
			m, ok, err := collision.CollidingTagged(a, i, b, j)
			if err != nil {
				return errors.Wrapf(err, "entities %d and %d", i, j)
			}
			if !ok {
				continue
			}
			if len(s.contacts) == cap(s.contacts) {
				util.LogWorldError(fmt.Sprintf("tick %d: more than %d contacts", s.tick, cap(s.contacts)))
				return errors.Wrapf(ErrCapacityExceeded, "contact buffer of %d", cap(s.contacts))
			}
			s.contacts = append(s.contacts, Contact{A: i, B: j, Manifold: m})
		}
	}
	return nil
}
