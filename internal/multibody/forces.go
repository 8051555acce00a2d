package multibody

import (
	"fmt"

	"github.com/san-kum/revolute/internal/scalar"
)

// Forces holds generalized forces, one entry per velocity of a tree.
type Forces[T scalar.Scalar[T]] struct {
	tau []T
}

// NewForces returns a zeroed force array sized for a finalized tree.
func NewForces[T scalar.Scalar[T]](tree *Tree[T]) (*Forces[T], error) {
	if !tree.IsFinalized() {
		return nil, fmt.Errorf("forces: %w", ErrTreeNotFinalized)
	}
	return NewForcesOfSize[T](tree.NumVelocities()), nil
}

func NewForcesOfSize[T scalar.Scalar[T]](nv int) *Forces[T] {
	return &Forces[T]{tau: make([]T, nv)}
}

func (f *Forces[T]) Size() int { return len(f.tau) }

// CheckHasRightSizeForModel reports whether f matches the tree's dof count.
func (f *Forces[T]) CheckHasRightSizeForModel(tree *Tree[T]) bool {
	return tree != nil && tree.IsFinalized() && len(f.tau) == tree.NumVelocities()
}

// MutableGeneralizedForces exposes the backing array.
func (f *Forces[T]) MutableGeneralizedForces() []T { return f.tau }

func (f *Forces[T]) GeneralizedForces() []T {
	out := make([]T, len(f.tau))
	copy(out, f.tau)
	return out
}

func (f *Forces[T]) SetZero() {
	var zero T
	for i := range f.tau {
		f.tau[i] = zero
	}
}
