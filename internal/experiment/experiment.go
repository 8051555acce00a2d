package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/revolute/internal/config"
	"github.com/san-kum/revolute/internal/scalar"
)

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   logger,
	}
}

// Run evaluates the scenario under its configured scalar kind.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	if e.cfg == nil {
		return nil, fmt.Errorf("experiment has no scenario")
	}
	kind, err := e.cfg.Kind()
	if err != nil {
		return nil, err
	}
	return e.RunAs(ctx, kind)
}

// RunAs evaluates the scenario under kind regardless of the configured one.
func (e *Experiment) RunAs(ctx context.Context, kind scalar.Kind) (*Report, error) {
	eval, err := e.registry.GetEvaluator(kind)
	if err != nil {
		return nil, err
	}
	log := e.logger.With("scenario", e.cfg.Name, "kind", kind)
	log.Debug("evaluating scenario", "frames", len(e.cfg.Frames), "joints", len(e.cfg.Joints))

	report, err := eval(ctx, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", e.cfg.Name, err)
	}
	log.Debug("tree finalized", "positions", report.NumPositions, "mobilizers", report.NumMobilizers)
	return report, nil
}

// Evaluate builds the scenario under T, applies its state and torques and
// reports the result. Under the dual kind every angle is seeded as an
// independent variable, so each joint's rotation carries dR/dθ.
func Evaluate[T scalar.Scalar[T]](ctx context.Context, cfg *config.Config) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := Build[T](cfg)
	if err != nil {
		return nil, err
	}
	if err := m.Apply(cfg, scalar.Variable[T]); err != nil {
		return nil, err
	}
	return m.Report(cfg.Name)
}
