// Package sweep evaluates one joint's rotation over a range of angles.
//
// The scenario is built once in the real kind, cloned to the dual kind and
// then shared read-only by a pool of workers. Each worker owns a private
// copy of the context, seeds the swept angle as a dual variable and records
// R(θ) together with dR/dθ.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/revolute/internal/config"
	"github.com/san-kum/revolute/internal/experiment"
	"github.com/san-kum/revolute/internal/multibody"
	"github.com/san-kum/revolute/internal/scalar"
)

type Sample struct {
	Angle      float64
	Rotation   mgl64.Mat3
	Derivative mgl64.Mat3
}

type Result struct {
	Scenario string
	Joint    string
	From     float64
	To       float64
	Workers  int
	Samples  []Sample
	Elapsed  time.Duration
}

func (r *Result) AngleSeries() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Angle
	}
	return out
}

// Series returns entry (row, col) of R across the samples.
func (r *Result) Series(row, col int) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Rotation.At(row, col)
	}
	return out
}

// DerivativeSeries returns entry (row, col) of dR/dθ across the samples.
func (r *Result) DerivativeSeries(row, col int) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Derivative.At(row, col)
	}
	return out
}

type Sweeper struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{cfg: cfg, logger: logger}
}

// Angles returns n evenly spaced angles from from to to, both included.
func Angles(from, to float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{from}
	}
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	out[n-1] = to
	return out
}

// Run sweeps the configured joint. The other joints keep the state from the
// scenario, which does not affect the swept joint's own rotation.
func (s *Sweeper) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	sc := s.cfg.Sweep
	name := s.cfg.SweepJoint()
	log := s.logger.With("scenario", s.cfg.Name, "joint", name)

	base, err := experiment.Build[scalar.Real](s.cfg)
	if err != nil {
		return nil, err
	}
	if err := base.Apply(s.cfg, scalar.From[scalar.Real]); err != nil {
		return nil, err
	}
	model, err := experiment.CloneTo[scalar.Dual](base)
	if err != nil {
		return nil, fmt.Errorf("clone to dual: %w", err)
	}
	joint, err := model.Joint(name)
	if err != nil {
		return nil, err
	}

	angles := Angles(sc.From, sc.To, sc.Samples)
	workers := min(max(sc.Workers, 1), len(angles))
	samples := make([]Sample, len(angles))
	log.Debug("sweep started", "samples", len(angles), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			state := model.Context.Clone()
			n := 0
			for i := w; i < len(angles); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				sample, err := evaluate(joint, state, angles[i])
				if err != nil {
					return err
				}
				samples[i] = sample
				n++
			}
			log.Debug("worker done", "worker", w, "samples", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	log.Debug("sweep finished", "elapsed", elapsed)
	return &Result{
		Scenario: s.cfg.Name,
		Joint:    name,
		From:     sc.From,
		To:       sc.To,
		Workers:  workers,
		Samples:  samples,
		Elapsed:  elapsed,
	}, nil
}

func evaluate(joint *multibody.RevoluteJoint[scalar.Dual], state *multibody.TreeContext[scalar.Dual], angle float64) (Sample, error) {
	if _, err := joint.SetAngle(state, scalar.Variable[scalar.Dual](angle)); err != nil {
		return Sample{}, err
	}
	rot, err := joint.CalcRotation(state)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Angle:      angle,
		Rotation:   rot.Values(),
		Derivative: multibody.Derivatives(rot),
	}, nil
}
