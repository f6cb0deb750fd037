package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	SampleEvery int                `json:"sample_every"`
	Params      sim.Params         `json:"params"`
	Ticks       int                `json:"ticks"`
	Particles   int                `json:"particles"`
	Frames      int                `json:"frames"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// FrameRow is one particle position in one sampled frame.
type FrameRow struct {
	Tick  int     `csv:"tick"`
	Time  float64 `csv:"time"`
	Index int     `csv:"index"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
}

// SeriesRow is one metric value at one sample time.
type SeriesRow struct {
	Time   float64 `csv:"time"`
	Metric string  `csv:"metric"`
	Value  float64 `csv:"value"`
}

func (s *Store) Save(name string, params sim.Params, cfg dynamo.Config, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(runID, name, params, cfg, result)
	meta.Timestamp = now

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, framesFile), FrameRows(result)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, seriesFile), SeriesRows(result)); err != nil {
		return "", err
	}

	return runID, nil
}

func NewMetadata(id, name string, params sim.Params, cfg dynamo.Config, result *dynamo.Result) RunMetadata {
	meta := RunMetadata{
		ID:          id,
		Name:        name,
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		SampleEvery: cfg.SampleEvery,
		Params:      params,
		Ticks:       result.TicksTaken,
		Particles:   result.Particles,
		Frames:      len(result.Frames),
		Metrics:     result.Metrics,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	return meta
}

func FrameRows(result *dynamo.Result) []*FrameRow {
	rows := make([]*FrameRow, 0)
	for _, f := range result.Frames {
		for i, p := range f.Pos {
			rows = append(rows, &FrameRow{Tick: f.Tick, Time: f.Time, Index: i, X: p.X, Y: p.Y})
		}
	}
	return rows
}

// SeriesRows flattens metric series in name order.
func SeriesRows(result *dynamo.Result) []*SeriesRow {
	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]*SeriesRow, 0)
	for _, name := range names {
		for i, v := range result.Series[name] {
			if i >= len(result.Times) {
				break
			}
			rows = append(rows, &SeriesRow{Time: result.Times[i], Metric: name, Value: v})
		}
	}
	return rows
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV[T any](path string, rows []*T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	// gocsv cannot derive a header from an empty slice
	if len(rows) > 0 {
		if err := gocsv.MarshalFile(rows, f); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames rebuilds the sampled frames of a run in tick order.
func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	var rows []*FrameRow
	if err := readCSV(filepath.Join(s.Dir(runID), framesFile), &rows); err != nil {
		return nil, err
	}

	frames := make([]dynamo.Frame, 0)
	for _, r := range rows {
		if len(frames) == 0 || frames[len(frames)-1].Tick != r.Tick {
			frames = append(frames, dynamo.Frame{Tick: r.Tick, Time: r.Time})
		}
		f := &frames[len(frames)-1]
		f.Pos = append(f.Pos, dynamo.Vec{X: r.X, Y: r.Y})
	}
	return frames, nil
}

// LoadSeries returns the sample times and per-metric values of a run.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	var rows []*SeriesRow
	if err := readCSV(filepath.Join(s.Dir(runID), seriesFile), &rows); err != nil {
		return nil, nil, err
	}

	series := make(map[string][]float64)
	times := make([]float64, 0)
	first := ""
	for _, r := range rows {
		if first == "" {
			first = r.Metric
		}
		if r.Metric == first {
			times = append(times, r.Time)
		}
		series[r.Metric] = append(series[r.Metric], r.Value)
	}
	return times, series, nil
}

func readCSV[T any](path string, out *[]*T) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		*out = []*T{}
		return nil
	}
	return gocsv.UnmarshalFile(f, out)
}
