package multibody

import (
	"fmt"
	"math"

	"github.com/san-kum/revolute/internal/scalar"
)

// Context is the opaque state handle joint accessors accept. Only a
// *TreeContext created by the owning tree is usable.
type Context[T scalar.Scalar[T]] interface {
	Time() float64
}

// TreeContext holds the generalized positions q and velocities v of one tree.
type TreeContext[T scalar.Scalar[T]] struct {
	treeID     uint64
	time       float64
	positions  []T
	velocities []T
}

func newTreeContext[T scalar.Scalar[T]](treeID uint64, nq, nv int) *TreeContext[T] {
	return &TreeContext[T]{
		treeID:     treeID,
		positions:  make([]T, nq),
		velocities: make([]T, nv),
	}
}

func (c *TreeContext[T]) Time() float64     { return c.time }
func (c *TreeContext[T]) SetTime(t float64) { c.time = t }
func (c *TreeContext[T]) NumPositions() int { return len(c.positions) }
func (c *TreeContext[T]) NumVelocities() int {
	return len(c.velocities)
}

func (c *TreeContext[T]) Positions() []T {
	q := make([]T, len(c.positions))
	copy(q, c.positions)
	return q
}

func (c *TreeContext[T]) Velocities() []T {
	v := make([]T, len(c.velocities))
	copy(v, c.velocities)
	return v
}

func (c *TreeContext[T]) SetPositions(q []T) error {
	if len(q) != len(c.positions) {
		return fmt.Errorf("%w: %d positions, context has %d", ErrSizeMismatch, len(q), len(c.positions))
	}
	copy(c.positions, q)
	return nil
}

func (c *TreeContext[T]) SetVelocities(v []T) error {
	if len(v) != len(c.velocities) {
		return fmt.Errorf("%w: %d velocities, context has %d", ErrSizeMismatch, len(v), len(c.velocities))
	}
	copy(c.velocities, v)
	return nil
}

func (c *TreeContext[T]) Clone() *TreeContext[T] {
	return &TreeContext[T]{
		treeID:     c.treeID,
		time:       c.time,
		positions:  c.Positions(),
		velocities: c.Velocities(),
	}
}

// IsValid reports whether no value part is NaN or Inf.
func (c *TreeContext[T]) IsValid() bool {
	for _, s := range [][]T{c.positions, c.velocities} {
		for _, x := range s {
			v := x.Value()
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func asTreeContext[T scalar.Scalar[T]](treeID uint64, ctx Context[T]) (*TreeContext[T], error) {
	tc, ok := ctx.(*TreeContext[T])
	if !ok || tc == nil {
		return nil, fmt.Errorf("%w: got %T, want *TreeContext", ErrTypeMismatch, ctx)
	}
	if tc.treeID != treeID {
		return nil, fmt.Errorf("%w: context was created by another tree", ErrTypeMismatch)
	}
	return tc, nil
}
