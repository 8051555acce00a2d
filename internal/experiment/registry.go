package experiment

import (
	"context"
	"fmt"
	"slices"

	"github.com/san-kum/revolute/internal/config"
	"github.com/san-kum/revolute/internal/scalar"
)

type Evaluator func(ctx context.Context, cfg *config.Config) (*Report, error)

type Registry struct {
	evaluators map[scalar.Kind]Evaluator
}

func NewRegistry() *Registry {
	r := &Registry{
		evaluators: make(map[scalar.Kind]Evaluator),
	}

	r.evaluators[scalar.KindReal] = Evaluate[scalar.Real]
	r.evaluators[scalar.KindDual] = Evaluate[scalar.Dual]

	return r
}

func (r *Registry) GetEvaluator(kind scalar.Kind) (Evaluator, error) {
	fn, ok := r.evaluators[kind]
	if !ok {
		return nil, fmt.Errorf("unknown scalar kind: %s", kind)
	}
	return fn, nil
}

func (r *Registry) ListKinds() []scalar.Kind {
	kinds := make([]scalar.Kind, 0, len(r.evaluators))
	for k := range r.evaluators {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
