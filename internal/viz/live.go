package viz

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ballpit/internal/config"
	"github.com/san-kum/ballpit/internal/host"
	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	maxSubsteps     = 64
	gifPath         = "ballpit.gif"
)

type TickMsg time.Time

// Model runs a ball pit through the ECS host and draws it every frame.
type Model struct {
	cfg    *config.Config
	logger *slog.Logger

	host   *host.Host
	sim    *sim.Simulator
	canvas *Canvas
	view   Viewport
	dt     float64

	running   bool
	substeps  int
	energy    []float64
	overlap   float64
	recording bool
	recorder  *Recorder
	showHelp  bool
	status    string
}

func NewModel(cfg *config.Config, logger *slog.Logger) (Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	canvas := NewCanvas(width, height)
	m := Model{
		cfg:      cfg,
		logger:   logger,
		canvas:   canvas,
		view:     NewViewport(canvas, cfg.Params.ContainerRadius),
		dt:       cfg.Run.Dt,
		running:  true,
		substeps: cfg.Params.Substeps,
		energy:   make([]float64, 0, historyCapacity),
		recorder: &Recorder{},
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	m.draw()
	return m, nil
}

// reset rebuilds the world from the config, keeping the current substeps.
func (m *Model) reset() error {
	params := m.cfg.ToParams()
	params.Substeps = m.substeps
	s, err := sim.New(params, sim.WithLogger(m.logger))
	if err != nil {
		return err
	}

	var spawner *scene.Spawner
	if m.cfg.Spawn.Enabled {
		spawner = scene.NewSpawner(m.cfg.Spawn, m.cfg.Run.Seed)
	}
	h := host.New(s, spawner, m.logger)

	p, err := scene.Build(m.cfg.Scene, params, m.cfg.Run.Seed)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(m.cfg.Run.Seed))
	for _, pos := range p.Pos {
		h.Spawn(pos, host.Tint{R: rng.Float64(), G: rng.Float64(), B: rng.Float64()})
	}

	m.sim = s
	m.host = h
	m.energy = m.energy[:0]
	m.overlap = 0
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.status = err.Error()
			}
		case "+", "=":
			m.setSubsteps(m.substeps * 2)
		case "-", "_":
			m.setSubsteps(m.substeps / 2)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) setSubsteps(n int) {
	n = max(1, min(n, maxSubsteps))
	m.substeps = n
	m.sim.SetSubsteps(n)
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.status = "recording"
		return
	}
	m.recording = false
	frames := m.recorder.Len()
	if err := m.recorder.Save(gifPath); err != nil {
		m.status = err.Error()
		m.logger.Error("save recording", "err", err)
		return
	}
	m.status = fmt.Sprintf("saved %d frames to %s", frames, gifPath)
}

// step advances the host by one frame and records the energy history.
func (m *Model) step() {
	m.host.Tick(m.dt)

	p := m.host.Particles()
	m.energy = append(m.energy, metrics.KineticEnergy(p))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
	m.overlap = metrics.MaxPenetration(p.Pos, m.cfg.ToParams().Diameter())
}

func (m *Model) draw() {
	pos, _ := m.host.Snapshot()
	DrawScene(m.canvas, m.view, pos, m.cfg.Params.ParticleRadius)
}

// View renders the TUI interface.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("BALLPIT") + "\n")

	switch {
	case m.recording:
		s.WriteString(StatusRecording.Render("● REC") + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	kinetic := 0.0
	if len(m.energy) > 0 {
		kinetic = m.energy[len(m.energy)-1]
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.host.Time()))
	row("Balls", fmt.Sprintf("%d", m.host.Count()))
	if m.cfg.Spawn.Enabled && m.cfg.Spawn.MaxParticles > 0 {
		row("", ProgressBar(float64(m.host.Count())/float64(m.cfg.Spawn.MaxParticles), 20))
	}
	row("Substeps", fmt.Sprintf("%d", m.substeps))
	row("Policy", m.sim.Policy().Name())
	row("Kinetic", fmt.Sprintf("%.3e", kinetic))
	row("Overlap", fmt.Sprintf("%.4f", m.overlap))
	row("", Sparkline(m.energy, 30))

	if m.status != "" {
		s.WriteString("\n" + valueStyle.Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\n+/-:Substeps G:Record ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(s.String()))

	if m.showHelp {
		return `
  Space  pause / resume
  R      reset to the initial scene
  + / -  double / halve substeps
  G      start / stop GIF recording
  Q      quit
` + "\n" + main
	}
	return main
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	m, err := NewModel(cfg, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
