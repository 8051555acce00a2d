package multibody

import (
	"fmt"

	"github.com/san-kum/revolute/internal/scalar"
)

// CloneJointToScalar rebuilds j over scalar kind To, bound to the frames of
// treeClone with the same indices and names. The returned joint is not yet
// added to treeClone and shares nothing with j.
func CloneJointToScalar[To scalar.Scalar[To], From scalar.Scalar[From]](j Joint[From], treeClone *Tree[To]) (Joint[To], error) {
	if j == nil || treeClone == nil {
		return nil, fmt.Errorf("clone joint: %w: nil argument", ErrConstructionPrecondition)
	}
	return instantiate(j.template(), treeClone)
}

func instantiate[T scalar.Scalar[T]](tmpl jointTemplate, tree *Tree[T]) (Joint[T], error) {
	h := tmpl.header()
	parent, err := tree.cloneTarget(h.parent, h.parentName)
	if err != nil {
		return nil, fmt.Errorf("clone joint %q: %w", h.name, err)
	}
	child, err := tree.cloneTarget(h.child, h.childName)
	if err != nil {
		return nil, fmt.Errorf("clone joint %q: %w", h.name, err)
	}

	switch t := tmpl.(type) {
	case revoluteTemplate:
		return newRevoluteJoint(h.name, parent, child, t.axis), nil
	default:
		panic(&InternalConsistencyError{Message: fmt.Sprintf("no joint kind for template %T", tmpl)})
	}
}

func (t *Tree[T]) cloneTarget(idx FrameIndex, name string) (*Frame[T], error) {
	f, err := t.FrameByIndex(idx)
	if err != nil {
		return nil, err
	}
	if f.name != name {
		return nil, fmt.Errorf("%w: frame %d is %q in the clone, %q in the source", ErrTopology, idx, f.name, name)
	}
	return f, nil
}

// CloneToScalar rebuilds src over scalar kind To. Frames keep their indices,
// joints keep their order, and a finalized source yields a finalized clone.
func CloneToScalar[To scalar.Scalar[To], From scalar.Scalar[From]](src *Tree[From]) (*Tree[To], error) {
	dst := NewTree[To]()
	dst.clonedFrom = src.id
	for _, f := range src.frames[1:] {
		if _, err := dst.AddFrame(f.name); err != nil {
			return nil, err
		}
	}
	for _, j := range src.joints {
		cj, err := CloneJointToScalar(j, dst)
		if err != nil {
			return nil, err
		}
		if err := dst.AddJoint(cj); err != nil {
			return nil, err
		}
	}
	if src.finalized {
		if err := dst.Finalize(); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// ConvertContext copies the state of ctx into a new context of treeClone,
// converting every value to To. ctx must belong to the tree treeClone was
// cloned from, or to treeClone itself.
func ConvertContext[To scalar.Scalar[To], From scalar.Scalar[From]](ctx *TreeContext[From], treeClone *Tree[To]) (*TreeContext[To], error) {
	if ctx == nil || treeClone == nil {
		return nil, fmt.Errorf("convert context: %w: nil argument", ErrTypeMismatch)
	}
	if ctx.treeID != treeClone.clonedFrom && ctx.treeID != treeClone.id {
		return nil, fmt.Errorf("convert context: %w: context belongs to tree %d, clone was made from tree %d",
			ErrTypeMismatch, ctx.treeID, treeClone.clonedFrom)
	}
	out, err := treeClone.CreateDefaultContext()
	if err != nil {
		return nil, err
	}
	if len(ctx.positions) != len(out.positions) || len(ctx.velocities) != len(out.velocities) {
		return nil, fmt.Errorf("convert context: %w: source has %d/%d, clone has %d/%d",
			ErrSizeMismatch, len(ctx.positions), len(ctx.velocities), len(out.positions), len(out.velocities))
	}
	for i, x := range ctx.positions {
		out.positions[i] = scalar.Convert[To](x)
	}
	for i, x := range ctx.velocities {
		out.velocities[i] = scalar.Convert[To](x)
	}
	out.time = ctx.time
	return out, nil
}
