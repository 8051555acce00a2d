package multibody

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/scalar"
)

// chain builds world -> l0 -> l1 -> ... with one revolute joint per link.
func chain[T scalar.Scalar[T]](t *testing.T, axes ...mgl64.Vec3) (*Tree[T], []*RevoluteJoint[T]) {
	t.Helper()
	tree := NewTree[T]()
	parent := tree.World()
	joints := make([]*RevoluteJoint[T], 0, len(axes))
	for i, axis := range axes {
		link, err := tree.AddFrame(linkName(i))
		if err != nil {
			t.Fatalf("add frame: %v", err)
		}
		j, err := tree.AddRevoluteJoint(jointName(i), parent, link, axis)
		if err != nil {
			t.Fatalf("add joint: %v", err)
		}
		joints = append(joints, j)
		parent = link
	}
	return tree, joints
}

func finalized[T scalar.Scalar[T]](t *testing.T, axes ...mgl64.Vec3) (*Tree[T], []*RevoluteJoint[T], *TreeContext[T]) {
	t.Helper()
	tree, joints := chain[T](t, axes...)
	if err := tree.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	ctx, err := tree.CreateDefaultContext()
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	return tree, joints, ctx
}

func linkName(i int) string  { return string(rune('a'+i)) + "_link" }
func jointName(i int) string { return string(rune('a'+i)) + "_pin" }

func expectInternalPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if _, ok := r.(*InternalConsistencyError); !ok {
			t.Errorf("expected *InternalConsistencyError panic, got %v", r)
		}
	}()
	fn()
}

// foreignContext is a Context that no tree created.
type foreignContext[T scalar.Scalar[T]] struct{}

func (foreignContext[T]) Time() float64 { return 0 }

func vecNear(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func matNear(a, b mgl64.Mat3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
