package world

import (
	"encoding/json"
	"os"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/memmaker/lockstep/engine/verlet"
	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid world config")

// Config sizes every preallocated buffer. Fixed values in JSON may be plain
// numbers or decimal strings; both parse exactly.
type Config struct {
	MaxEntities int               `json:"max_entities"`
	MaxContacts int               `json:"max_contacts"`
	TimeStep    fixed.Fixed       `json:"time_step"`
	Gravity     vecmath.FixedVec3 `json:"gravity"`
	BoundsMin   vecmath.FixedVec3 `json:"bounds_min"`
	BoundsMax   vecmath.FixedVec3 `json:"bounds_max"`
}

func DefaultConfig() Config {
	integrator := verlet.DefaultConfig()
	return Config{
		MaxEntities: 1024,
		MaxContacts: 4096,
		TimeStep:    integrator.TimeStep,
		Gravity:     integrator.Gravity,
		BoundsMin:   integrator.BoundsMin,
		BoundsMax:   integrator.BoundsMax,
	}
}

func (c Config) Integrator() verlet.Config {
	return verlet.Config{
		TimeStep:  c.TimeStep,
		Gravity:   c.Gravity,
		BoundsMin: c.BoundsMin,
		BoundsMax: c.BoundsMax,
	}
}

func (c Config) Validate() error {
	if c.MaxEntities <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_entities %d", c.MaxEntities)
	}
	if c.MaxContacts <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_contacts %d", c.MaxContacts)
	}
	return c.Integrator().Validate()
}

// LoadConfig reads a JSON file over DefaultConfig, so omitted keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
