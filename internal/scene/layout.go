package scene

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/sim"
)

type LayoutConfig struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
	// Duplicates copies every fifth random point onto the previous one and
	// puts the first at the origin.
	Duplicates bool `yaml:"duplicates"`
}

// Layout places up to cfg.Count particles inside the container.
type Layout func(cfg LayoutConfig, params sim.Params, rng *rand.Rand) []dynamo.Vec

var layouts = map[string]Layout{
	"empty":   Empty,
	"lattice": Lattice,
	"random":  Random,
}

func LayoutByName(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout: %s", name)
	}
	return l, nil
}

func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build lays out particles at rest.
func Build(cfg LayoutConfig, params sim.Params, seed int64) (*dynamo.Particles, error) {
	layout, err := LayoutByName(cfg.Name)
	if err != nil {
		return nil, err
	}
	pts := layout(cfg, params, rand.New(rand.NewSource(seed)))
	p := dynamo.NewParticles(len(pts))
	for _, pt := range pts {
		p.Append(pt, pt)
	}
	return p, nil
}

func Empty(LayoutConfig, sim.Params, *rand.Rand) []dynamo.Vec { return nil }

// Lattice fills the container bottom-up with hexagonally packed rows that
// just touch. It returns fewer than cfg.Count points when the disk is full.
func Lattice(cfg LayoutConfig, params sim.Params, _ *rand.Rand) []dynamo.Vec {
	d := params.Diameter()
	limit := params.ContainerRadius - params.ParticleRadius
	rowStep := d * math.Sqrt(3) / 2

	pts := make([]dynamo.Vec, 0, cfg.Count)
	for row := 0; len(pts) < cfg.Count; row++ {
		y := -limit + float64(row)*rowStep
		if y > limit {
			break
		}
		half := math.Sqrt(math.Max(limit*limit-y*y, 0))
		offset := 0.0
		if row%2 == 1 {
			offset = d / 2
		}
		start := -half + math.Mod(half+offset, d)
		for x := start; x <= half && len(pts) < cfg.Count; x += d {
			pts = append(pts, dynamo.Vec{X: x, Y: y})
		}
	}
	return pts
}

// Random scatters cfg.Count points uniformly over the area of the
// container.
func Random(cfg LayoutConfig, params sim.Params, rng *rand.Rand) []dynamo.Vec {
	limit := params.ContainerRadius - params.ParticleRadius
	pts := make([]dynamo.Vec, cfg.Count)
	for i := range pts {
		if cfg.Duplicates {
			if i == 0 {
				continue
			}
			if i%5 == 0 {
				pts[i] = pts[i-1]
				continue
			}
		}
		a := rng.Float64() * 2 * math.Pi
		r := limit * math.Sqrt(rng.Float64())
		pts[i] = dynamo.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return pts
}
