package main

import (
	"github.com/memmaker/lockstep/engine/collision"
	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/vecmath"
	"github.com/memmaker/lockstep/engine/verlet"
)

type BodyDefinition struct {
	Name     string
	Shape    collision.Shape
	Rotation vecmath.FixedQuat
	SpawnPos vecmath.FixedVec3
	Velocity vecmath.FixedVec3
	InvMass  fixed.Fixed
	Static   bool // shape only, no particle
}

const ringSize = 12

// NewScenario lays out a floor slab, a ring of falling spheres and tilted
// capsules around the slab center, and a heavy sphere dropped onto the ring.
func NewScenario(tbl *fixed.Table) []BodyDefinition {
	center := vecmath.FixedV3(500, 0, 500)
	bodies := []BodyDefinition{
		{
			Name:     "Floor",
			Shape:    collision.NewAabb(vecmath.FixedV3(20, 1, 20)),
			Rotation: vecmath.QuatIdent[fixed.Fixed](),
			SpawnPos: center,
			Static:   true,
		},
	}

	radius := fixed.FromInt(6)
	up := vecmath.FixedV3(0, 1, 0)
	for i := int32(0); i < ringSize; i++ {
		turns, _ := fixed.FromFraction(i, ringSize)
		pos := vecmath.FixedVec3{
			X: center.X.Add(radius.Mul(tbl.Cos(turns))),
			Y: fixed.FromInt(20 + 3*i),
			Z: center.Z.Add(radius.Mul(tbl.Sin(turns))),
		}
		body := BodyDefinition{
			Rotation: vecmath.QuatFromAxisAngle(tbl, up, turns),
			SpawnPos: pos,
			Velocity: vecmath.FixedVec3{X: fixed.FromRaw(-(i - ringSize/2) * 256)},
			InvMass:  fixed.One,
		}
		if i%2 == 0 {
			body.Name = "Ball"
			body.Shape = collision.NewSphere(fixed.One)
		} else {
			body.Name = "Pill"
			body.Shape = collision.NewCapsule(fixed.Half, fixed.FromInt(2))
			tilt := vecmath.QuatFromAxisAngle(tbl, vecmath.FixedV3(1, 0, 0), fixed.Degrees(30))
			body.Rotation = body.Rotation.Mul(tilt)
		}
		bodies = append(bodies, body)
	}

	bodies = append(bodies, BodyDefinition{
		Name:     "Anvil",
		Shape:    collision.NewSphere(fixed.FromInt(3)),
		Rotation: vecmath.QuatIdent[fixed.Fixed](),
		SpawnPos: vecmath.FixedV3(500, 90, 500),
		InvMass:  fixed.MustParse("0.125"),
	})
	return bodies
}

// windForce pushes every movable particle along +Z with a fixed force.
func windForce(strength fixed.Fixed) verlet.ForceFunc {
	return func(particles []verlet.Particle) {
		for i := range particles {
			p := &particles[i]
			if p.IsActive && !p.IsImmovable() {
				p.Force.Z = p.Force.Z.Add(strength)
			}
		}
	}
}
