package multibody

import (
	"fmt"

	"github.com/san-kum/revolute/internal/scalar"
)

type JointIndex int

// Joint is the interface every joint kind exposes to the tree. The
// unexported hooks keep the set of joint kinds closed to this package.
type Joint[T scalar.Scalar[T]] interface {
	Name() string
	Index() JointIndex
	FrameOnParent() *Frame[T]
	FrameOnChild() *Frame[T]
	NumDOFs() int

	// PositionStart and VelocityStart are the joint's offsets into q and v,
	// or -1 before Tree.Finalize.
	PositionStart() int
	VelocityStart() int

	base() *jointBase[T]
	makeBlueprint() *Blueprint[T]
	bindImplementation(handles []MobilizerIndex)
	addInOneForce(dof int, tau T, forces *Forces[T])
	template() jointTemplate
}

// Blueprint is what a joint produces at finalize time. The tree takes the
// mobilizers and returns their indices to the joint in the same order.
type Blueprint[T scalar.Scalar[T]] struct {
	Mobilizers []Mobilizer[T]
}

type jointBase[T scalar.Scalar[T]] struct {
	name   string
	parent *Frame[T]
	child  *Frame[T]
	index  JointIndex
	tree   *Tree[T]
}

func (b *jointBase[T]) Name() string             { return b.name }
func (b *jointBase[T]) Index() JointIndex        { return b.index }
func (b *jointBase[T]) FrameOnParent() *Frame[T] { return b.parent }
func (b *jointBase[T]) FrameOnChild() *Frame[T]  { return b.child }
func (b *jointBase[T]) base() *jointBase[T]      { return b }

func (b *jointBase[T]) fail(op string, err error) error {
	return &JointError{Joint: b.name, Op: op, Wrapped: err}
}

func (b *jointBase[T]) requireFinalized(op string) error {
	if b.tree == nil || !b.tree.IsFinalized() {
		return b.fail(op, ErrTreeNotFinalized)
	}
	return nil
}

// treeContext checks ctx before any accessor touches it.
func (b *jointBase[T]) treeContext(op string, ctx Context[T]) (*TreeContext[T], error) {
	if err := b.requireFinalized(op); err != nil {
		return nil, err
	}
	tc, err := asTreeContext[T](b.tree.id, ctx)
	if err != nil {
		return nil, b.fail(op, err)
	}
	return tc, nil
}

func (b *jointBase[T]) checkForces(op string, forces *Forces[T]) error {
	if forces == nil {
		return b.fail(op, fmt.Errorf("%w: nil forces", ErrSizeMismatch))
	}
	if err := b.requireFinalized(op); err != nil {
		return err
	}
	if !forces.CheckHasRightSizeForModel(b.tree) {
		return b.fail(op, fmt.Errorf("%w: forces has %d entries, tree has %d dofs",
			ErrSizeMismatch, forces.Size(), b.tree.NumVelocities()))
	}
	return nil
}

// jointTemplate is the scalar-free description of a joint used for cloning.
// Each joint kind has its own concrete template type.
type jointTemplate interface {
	header() templateHeader
}

type templateHeader struct {
	name       string
	parent     FrameIndex
	parentName string
	child      FrameIndex
	childName  string
}

func (b *jointBase[T]) describe() templateHeader {
	return templateHeader{
		name:       b.name,
		parent:     b.parent.index,
		parentName: b.parent.name,
		child:      b.child.index,
		childName:  b.child.name,
	}
}
