package host_test

import (
	"io"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/host"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newSim(mutate func(*sim.Params)) *sim.Simulator {
	params := sim.DefaultParams()
	if mutate != nil {
		mutate(&params)
	}
	s, err := sim.New(params, sim.WithLogger(logger))
	Expect(err).NotTo(HaveOccurred())
	return s
}

func position(h *host.Host, e ecs.Entity) dynamo.Vec {
	pos, ok := h.Position(e)
	ExpectWithOffset(1, ok).To(BeTrue())
	return pos
}

var _ = Describe("Host", func() {
	const dt = 1.0 / 60

	It("spawns balls in the X/Z plane", func() {
		h := host.New(newSim(nil), nil, logger)
		e := h.Spawn(dynamo.Vec{X: 0.3, Y: 2}, host.Tint{R: 1})

		Expect(h.Count()).To(Equal(1))
		Expect(position(h, e)).To(Equal(dynamo.Vec{X: 0.3, Y: 2}))

		tf := ecs.NewMap1[host.Transform](h.World()).Get(e)
		Expect(tf.X).To(Equal(0.3))
		Expect(tf.Y).To(Equal(0.0))
		Expect(tf.Z).To(Equal(2.0))
	})

	It("moves balls under gravity without touching Y", func() {
		h := host.New(newSim(nil), nil, logger)
		e := h.Spawn(dynamo.Vec{}, host.Tint{})
		ecs.NewMap1[host.Transform](h.World()).Get(e).Y = 7

		for i := 0; i < 10; i++ {
			h.Tick(dt)
		}

		// from rest: g*dt²*k(k+1)/2
		want := -9.8 * dt * dt * 10 * 11 / 2
		Expect(position(h, e).Y).To(BeNumerically("~", want, 1e-12))
		Expect(ecs.NewMap1[host.Transform](h.World()).Get(e).Y).To(Equal(7.0))
		Expect(ecs.NewMap1[host.Ball](h.World()).Get(e).Accel).To(Equal(dynamo.Vec{}))
		Expect(h.Time()).To(BeNumerically("~", 10*dt, 1e-12))
	})

	It("keeps entities mapped to their own state", func() {
		h := host.New(newSim(func(p *sim.Params) { p.Gravity = dynamo.Vec{} }), nil, logger)

		starts := []dynamo.Vec{{X: -2}, {X: -1}, {X: 0}, {X: 1}, {X: 2}}
		entities := make([]ecs.Entity, len(starts))
		for i, s := range starts {
			entities[i] = h.Spawn(s, host.Tint{})
		}
		h.AddAccel(entities[4], dynamo.Vec{Y: 60 * 60})

		h.Despawn(entities[1])
		h.Despawn(entities[1])
		Expect(h.Count()).To(Equal(4))

		h.Tick(dt)
		h.Tick(dt)

		for _, i := range []int{0, 2, 3} {
			Expect(position(h, entities[i])).To(Equal(starts[i]))
		}
		// one impulse of dt² * a = 1 carried into the second tick
		Expect(position(h, entities[4]).X).To(Equal(2.0))
		Expect(position(h, entities[4]).Y).To(BeNumerically("~", 2.0, 1e-9))
	})

	It("ignores despawned entities", func() {
		h := host.New(newSim(nil), nil, logger)
		e := h.Spawn(dynamo.Vec{X: 1}, host.Tint{})
		h.Despawn(e)

		_, ok := h.Position(e)
		Expect(ok).To(BeFalse())
		Expect(func() { h.AddAccel(e, dynamo.Vec{Y: 1}) }).NotTo(Panic())
		Expect(h.Count()).To(Equal(0))
	})

	It("separates overlapping balls", func() {
		h := host.New(newSim(func(p *sim.Params) { p.Gravity = dynamo.Vec{} }), nil, logger)
		a := h.Spawn(dynamo.Vec{}, host.Tint{})
		b := h.Spawn(dynamo.Vec{X: 0.2}, host.Tint{})

		h.Tick(dt)
		Expect(position(h, b).X - position(h, a).X).To(BeNumerically(">=", 0.4))
	})

	It("drives a spawner at tick boundaries", func() {
		cfg := scene.DefaultSpawnConfig()
		cfg.Interval = 0.5
		h := host.New(newSim(nil), scene.NewSpawner(cfg, 1), logger)

		// 0.0s .. 1.0s inclusive of the first tick
		for i := 0; i <= 60; i++ {
			h.Tick(dt)
		}
		Expect(h.Count()).To(Equal(3))

		pos, tints := h.Snapshot()
		Expect(pos).To(HaveLen(3))
		Expect(tints).To(HaveLen(3))
		Expect(tints[0]).NotTo(Equal(host.Tint{}))
	})
})
