package storage

import (
	"encoding/json"
	"io"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/sweep"
)

type ExportSample struct {
	Angle      float64       `json:"angle"`
	Rotation   [3][3]float64 `json:"rotation"`
	Derivative [3][3]float64 `json:"derivative"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

func rows(m mgl64.Mat3) [3][3]float64 {
	var out [3][3]float64
	for i := range 3 {
		for j := range 3 {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

func NewExportData(meta RunMetadata, samples []sweep.Sample) ExportData {
	data := ExportData{
		Run:     meta,
		Samples: make([]ExportSample, len(samples)),
	}
	for i, s := range samples {
		data.Samples[i] = ExportSample{
			Angle:      s.Angle,
			Rotation:   rows(s.Rotation),
			Derivative: rows(s.Derivative),
		}
	}
	return data
}

// ExportJSON writes a stored run, metadata and samples, as indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(*meta, samples))
}
