package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/sweep"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var ErrMalformedRun = errors.New("storage: malformed run")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Joint     string    `json:"joint"`
	Timestamp time.Time `json:"timestamp"`
	From      float64   `json:"from"`
	To        float64   `json:"to"`
	Samples   int       `json:"samples"`
	Workers   int       `json:"workers"`
	ElapsedMS float64   `json:"elapsed_ms"`
}

// Save writes a sweep to a fresh run directory and returns its id.
func (s *Store) Save(res *sweep.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", res.Scenario, res.Joint, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  res.Scenario,
		Joint:     res.Joint,
		Timestamp: now,
		From:      res.From,
		To:        res.To,
		Samples:   len(res.Samples),
		Workers:   res.Workers,
		ElapsedMS: float64(res.Elapsed) / float64(time.Millisecond),
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeSamples(csvFile, res.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func header() []string {
	h := []string{"angle"}
	for _, prefix := range []string{"r", "dr"} {
		for i := range 3 {
			for j := range 3 {
				h = append(h, fmt.Sprintf("%s%d%d", prefix, i, j))
			}
		}
	}
	return h
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSamples(out io.Writer, samples []sweep.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(header()); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{formatFloat(s.Angle)}
		for _, m := range []mgl64.Mat3{s.Rotation, s.Derivative} {
			for i := range 3 {
				for j := range 3 {
					row = append(row, formatFloat(m.At(i, j)))
				}
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]sweep.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header())

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRun, err)
	}
	if len(records) < 2 {
		return []sweep.Sample{}, nil
	}

	samples := make([]sweep.Sample, 0, len(records)-1)
	for n, record := range records[1:] {
		vals := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRun, n+1, err)
			}
			vals[i] = v
		}

		var rot, der mgl64.Mat3
		for i := range 3 {
			for j := range 3 {
				rot.Set(i, j, vals[1+3*i+j])
				der.Set(i, j, vals[10+3*i+j])
			}
		}
		samples = append(samples, sweep.Sample{Angle: vals[0], Rotation: rot, Derivative: der})
	}
	return samples, nil
}
