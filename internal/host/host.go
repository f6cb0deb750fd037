// Package host keeps balls as ECS entities and runs the simulator over them
// once per frame.
package host

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
)

type Host struct {
	world  *ecs.World
	mapper *ecs.Map4[Transform, LastTransform, Ball, Tint]
	filter *ecs.Filter4[Transform, LastTransform, Ball, Tint]

	sim     *sim.Simulator
	spawner *scene.Spawner
	logger  *slog.Logger

	count int
	time  float64

	particles *dynamo.Particles
	entities  []ecs.Entity
}

// New builds a host around s. spawner may be nil.
func New(s *sim.Simulator, spawner *scene.Spawner, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	world := ecs.NewWorld()
	return &Host{
		world:     world,
		mapper:    ecs.NewMap4[Transform, LastTransform, Ball, Tint](world),
		filter:    ecs.NewFilter4[Transform, LastTransform, Ball, Tint](world),
		sim:       s,
		spawner:   spawner,
		logger:    logger,
		particles: dynamo.NewParticles(64),
	}
}

func (h *Host) World() *ecs.World { return h.world }

func (h *Host) Count() int { return h.count }

func (h *Host) Time() float64 { return h.time }

// Spawn creates a resting ball at pos in the physics plane.
func (h *Host) Spawn(pos dynamo.Vec, tint Tint) ecs.Entity {
	tf := Transform{X: pos.X, Z: pos.Y}
	last := LastTransform(tf)
	ball := Ball{}
	e := h.mapper.NewEntity(&tf, &last, &ball, &tint)
	h.count++
	return e
}

func (h *Host) Despawn(e ecs.Entity) {
	if !h.world.Alive(e) {
		return
	}
	h.world.RemoveEntity(e)
	h.count--
}

// Position returns the planar position of e. ok is false once e has been
// despawned.
func (h *Host) Position(e ecs.Entity) (pos dynamo.Vec, ok bool) {
	if !h.world.Alive(e) {
		return dynamo.Vec{}, false
	}
	tf, _, _, _ := h.mapper.Get(e)
	return planar(tf.X, tf.Z), true
}

// AddAccel adds to the acceleration e receives on the next tick. Despawned
// entities are ignored.
func (h *Host) AddAccel(e ecs.Entity, a dynamo.Vec) {
	if !h.world.Alive(e) {
		return
	}
	_, _, ball, _ := h.mapper.Get(e)
	ball.Accel.X += a.X
	ball.Accel.Y += a.Y
}

// Tick spawns a ball if one is due, then gathers every ball into flat
// arrays, advances them by dt and writes the result back.
func (h *Host) Tick(dt float64) {
	if h.spawner != nil {
		if pos, c, ok := h.spawner.Next(h.count, h.time); ok {
			h.Spawn(pos, Tint{R: c.R, G: c.G, B: c.B})
			h.logger.Debug("spawned ball", "count", h.count, "time", h.time)
		}
	}

	p := h.particles
	p.Resize(0)
	h.entities = h.entities[:0]

	query := h.filter.Query()
	for query.Next() {
		tf, last, ball, _ := query.Get()
		i := p.Append(planar(tf.X, tf.Z), planar(last.X, last.Z))
		p.Acc[i] = ball.Accel
		h.entities = append(h.entities, query.Entity())
	}

	h.sim.Tick(p, dt)

	for i, e := range h.entities {
		tf, last, ball, _ := h.mapper.Get(e)
		tf.X, tf.Z = p.Pos[i].X, p.Pos[i].Y
		last.X, last.Z = p.Last[i].X, p.Last[i].Y
		ball.Accel = dynamo.Vec{}
	}
	h.time += dt
}

// Particles is the flat state gathered on the last tick, after stepping.
// It is overwritten by the next tick.
func (h *Host) Particles() *dynamo.Particles { return h.particles }

// Snapshot copies the planar positions and tints of every ball.
func (h *Host) Snapshot() ([]dynamo.Vec, []Tint) {
	pos := make([]dynamo.Vec, 0, h.count)
	tints := make([]Tint, 0, h.count)
	query := h.filter.Query()
	for query.Next() {
		tf, _, _, tint := query.Get()
		pos = append(pos, planar(tf.X, tf.Z))
		tints = append(tints, *tint)
	}
	return pos, tints
}
