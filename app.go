package main

import (
	"fmt"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/snapshot"
	"github.com/memmaker/lockstep/engine/util"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/memmaker/lockstep/engine/wire"
	"github.com/memmaker/lockstep/engine/world"
	"github.com/pkg/errors"
)

type TickReport struct {
	Tick     uint64
	Contacts int
	Deepest  fixed.Fixed
	Digest   uint32
}

type runResult struct {
	sim     *world.Simulation
	reports []TickReport
}

func populate(sim *world.Simulation, bodies []BodyDefinition) error {
	if len(bodies) > sim.Config().MaxEntities {
		return errors.Wrapf(world.ErrCapacityExceeded, "scenario has %d bodies", len(bodies))
	}
	for e, body := range bodies {
		shape := body.Shape
		shape.UpdateTransform(vecmath.NewTransform(body.SpawnPos, body.Rotation, vecmath.FixedV3(1, 1, 1)))
		if err := sim.SetShape(e, shape); err != nil {
			return errors.Wrapf(err, "body %s", body.Name)
		}
		if util.LogEnabled(util.LogWorld, util.LogLevelDebug) {
			util.LogWorldDebug(fmt.Sprintf("entity %d %s %s world matrix %v", e, body.Name, shape.Kind(), shape.WorldSpaceTransform().Mat4()))
		}
		if body.Static {
			continue
		}
		if err := sim.SpawnParticle(e, body.SpawnPos, body.Velocity, body.InvMass); err != nil {
			return errors.Wrapf(err, "body %s", body.Name)
		}
	}
	return nil
}

// runScenario plays the scripted scenario for ticks steps. onTick may be nil.
func runScenario(cfg world.Config, tbl *fixed.Table, crc *wire.CRCTable, ticks int, timer *util.Timer, onTick func(TickReport)) (*runResult, error) {
	sim, err := world.NewSimulation(cfg)
	if err != nil {
		return nil, err
	}
	if err := populate(sim, NewScenario(tbl)); err != nil {
		return nil, err
	}
	sim.AddForceContributor(windForce(fixed.MustParse("0.5")))

	result := &runResult{sim: sim, reports: make([]TickReport, 0, ticks)}
	for i := 0; i < ticks; i++ {
		stopStep := timer.Start("step")
		contacts, err := sim.Step()
		stopStep()
		if err != nil {
			return result, errors.Wrapf(err, "tick %d", sim.Tick())
		}

		report := TickReport{Tick: sim.Tick(), Contacts: len(contacts)}
		for _, c := range contacts {
			report.Deepest = fixed.Max(report.Deepest, c.Manifold.Penetration)
		}
		stopDigest := timer.Start("digest")
		report.Digest, err = snapshot.Digest(snapshot.Capture(sim), crc)
		stopDigest()
		if err != nil {
			return result, err
		}
		result.reports = append(result.reports, report)
		if onTick != nil {
			onTick(report)
		}
	}
	util.LogWorldInfo(fmt.Sprintf("scenario finished at tick %d with %d active particles", sim.Tick(), sim.Particles().ActiveCount()))
	return result, nil
}

// firstDivergence returns the index of the first differing report, or -1.
func firstDivergence(a, b []TickReport) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
