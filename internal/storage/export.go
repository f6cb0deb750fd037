package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/ballpit/internal/dynamo"
)

type ExportData struct {
	Meta   RunMetadata          `json:"meta"`
	Times  []float64            `json:"times"`
	Frames []ExportFrame        `json:"frames"`
	Series map[string][]float64 `json:"series"`
}

type ExportFrame struct {
	Tick int          `json:"tick"`
	Time float64      `json:"time"`
	Pos  [][2]float64 `json:"pos"`
}

func NewExportData(meta RunMetadata, result *dynamo.Result) ExportData {
	data := ExportData{
		Meta:   meta,
		Times:  result.Times,
		Frames: make([]ExportFrame, len(result.Frames)),
		Series: result.Series,
	}
	for i, f := range result.Frames {
		pos := make([][2]float64, len(f.Pos))
		for j, p := range f.Pos {
			pos[j] = [2]float64{p.X, p.Y}
		}
		data.Frames[i] = ExportFrame{Tick: f.Tick, Time: f.Time, Pos: pos}
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta, result)
}

func WriteJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, result))
}

// LoadResult reassembles a stored run into a Result, for export.
func (s *Store) LoadResult(runID string) (*RunMetadata, *dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	times, series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}

	if len(times) == 0 {
		for _, f := range frames {
			times = append(times, f.Time)
		}
	}
	return meta, &dynamo.Result{
		Frames:     frames,
		Times:      times,
		Metrics:    meta.Metrics,
		Series:     series,
		TicksTaken: meta.Ticks,
		Particles:  meta.Particles,
	}, nil
}
