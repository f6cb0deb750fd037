package host

import "github.com/san-kum/ballpit/internal/dynamo"

// Transform is a ball's position in world space. Physics runs in the X/Z
// plane and leaves Y alone.
type Transform struct {
	X, Y, Z float64
}

// LastTransform is the position a ball had before its most recent step.
type LastTransform struct {
	X, Y, Z float64
}

// Ball carries acceleration accumulated by other systems since the last
// tick. It is consumed on the first substep and reset after the tick.
type Ball struct {
	Accel dynamo.Vec
}

type Tint struct {
	R, G, B float64
}

func planar(x, z float64) dynamo.Vec { return dynamo.Vec{X: x, Y: z} }
