package integrators

import (
	"fmt"

	"github.com/san-kum/ballpit/internal/collision"
	"github.com/san-kum/ballpit/internal/dynamo"
)

// Policy decides how collision corrections interact with implied velocity.
// It runs after the resolver has moved positions and before integration.
type Policy interface {
	Name() string
	AfterCollisions(p *dynamo.Particles, contacts []collision.Contact)
}

// Absorb leaves corrections in place, so they become part of each particle's
// velocity on the next step.
type Absorb struct{}

func (Absorb) Name() string                                           { return "absorb" }
func (Absorb) AfterCollisions(*dynamo.Particles, []collision.Contact) {}

// Quench re-syncs the last position of every colliding particle to its
// corrected position and holds it for the step, dropping its implied
// velocity. Colliding particles come to rest apart from what their
// acceleration adds.
type Quench struct{}

func (Quench) Name() string { return "quench" }

func (Quench) AfterCollisions(p *dynamo.Particles, contacts []collision.Contact) {
	if len(contacts) == 0 {
		return
	}
	if len(p.Hold) != p.Len() {
		p.Hold = make([]bool, p.Len())
	}
	for _, c := range contacts {
		for _, i := range [2]int{c.I, c.J} {
			p.Last[i] = p.Pos[i]
			p.Hold[i] = true
		}
	}
}

// PolicyByName returns the named policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "absorb":
		return Absorb{}, nil
	case "quench":
		return Quench{}, nil
	}
	return nil, fmt.Errorf("unknown policy: %s", name)
}
