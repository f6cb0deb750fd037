// Package physics provides the container constraint and the forces that act
// on ballpit particles.
//
//   - [Disk]: circular container centred on the origin
//   - [Constrain]: radial clamp of one position into the container
//   - [Gravity]: uniform acceleration, a [dynamo.Force]
//
// Forces only add into Particles.Acc; the integrator consumes and clears it.
//
//	g := physics.Gravity{G: dynamo.Vec{Y: -9.8}}
//	g.Accumulate(p)
//	physics.Disk{Radius: 3}.ConstrainAll(p, 0.2)
package physics
