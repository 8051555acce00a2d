package multibody

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/scalar"
)

var lastTreeID atomic.Uint64

// Tree owns the frames, joints and mobilizers of one multibody model.
// Topology may only change before Finalize.
type Tree[T scalar.Scalar[T]] struct {
	id           uint64
	frames       []*Frame[T]
	framesByName map[string]FrameIndex
	joints       []Joint[T]
	jointsByName map[string]JointIndex
	inboard      map[FrameIndex]JointIndex
	mobilizers   *mobilizerArena[T]
	// clonedFrom is the id of the tree this one was cloned from, or 0.
	clonedFrom uint64

	finalized     bool
	numPositions  int
	numVelocities int
}

func NewTree[T scalar.Scalar[T]]() *Tree[T] {
	id := lastTreeID.Add(1)
	t := &Tree[T]{
		id:           id,
		framesByName: make(map[string]FrameIndex),
		jointsByName: make(map[string]JointIndex),
		inboard:      make(map[FrameIndex]JointIndex),
		mobilizers:   newMobilizerArena[T](id),
	}
	t.frames = append(t.frames, &Frame[T]{name: WorldFrameName, index: 0, treeID: id})
	t.framesByName[WorldFrameName] = 0
	return t
}

func (t *Tree[T]) World() *Frame[T] { return t.frames[0] }

func (t *Tree[T]) AddFrame(name string) (*Frame[T], error) {
	if t.finalized {
		return nil, fmt.Errorf("add frame %q: %w", name, ErrTreeFinalized)
	}
	if name == "" {
		return nil, fmt.Errorf("add frame: %w: empty name", ErrConstructionPrecondition)
	}
	if _, ok := t.framesByName[name]; ok {
		return nil, fmt.Errorf("frame %q: %w", name, ErrDuplicateName)
	}
	f := &Frame[T]{name: name, index: FrameIndex(len(t.frames)), treeID: t.id}
	t.frames = append(t.frames, f)
	t.framesByName[name] = f.index
	return f, nil
}

func (t *Tree[T]) Frame(name string) (*Frame[T], error) {
	idx, ok := t.framesByName[name]
	if !ok {
		return nil, fmt.Errorf("frame %q: %w", name, ErrUnknownName)
	}
	return t.frames[idx], nil
}

func (t *Tree[T]) FrameByIndex(idx FrameIndex) (*Frame[T], error) {
	if idx < 0 || int(idx) >= len(t.frames) {
		return nil, fmt.Errorf("frame index %d: %w", idx, ErrUnknownName)
	}
	return t.frames[idx], nil
}

func (t *Tree[T]) Frames() []*Frame[T] { return slices.Clone(t.frames) }
func (t *Tree[T]) NumFrames() int      { return len(t.frames) }

// AddJoint registers j with the tree. The joint's frames must belong to t,
// and the child frame may have at most one inboard joint.
func (t *Tree[T]) AddJoint(j Joint[T]) error {
	if j == nil {
		return fmt.Errorf("add joint: %w: nil joint", ErrConstructionPrecondition)
	}
	b := j.base()
	if t.finalized {
		return fmt.Errorf("add joint %q: %w", b.name, ErrTreeFinalized)
	}
	if b.tree != nil {
		return fmt.Errorf("add joint %q: %w: joint already belongs to a tree", b.name, ErrTopology)
	}
	if _, ok := t.jointsByName[b.name]; ok {
		return fmt.Errorf("joint %q: %w", b.name, ErrDuplicateName)
	}
	if b.parent.treeID != t.id || b.child.treeID != t.id {
		return fmt.Errorf("add joint %q: %w", b.name, ErrForeignFrame)
	}
	if b.child.IsWorld() {
		return fmt.Errorf("add joint %q: %w: world cannot be a child frame", b.name, ErrTopology)
	}
	if b.parent == b.child {
		return fmt.Errorf("add joint %q: %w: parent and child are both %q", b.name, ErrTopology, b.child.name)
	}
	if prev, ok := t.inboard[b.child.index]; ok {
		return fmt.Errorf("add joint %q: %w: frame %q already mobilized by %q",
			b.name, ErrTopology, b.child.name, t.joints[prev].Name())
	}

	b.tree = t
	b.index = JointIndex(len(t.joints))
	t.joints = append(t.joints, j)
	t.jointsByName[b.name] = b.index
	t.inboard[b.child.index] = b.index
	return nil
}

// AddJoint is Tree.AddJoint returning the joint with its concrete type.
func AddJoint[J Joint[T], T scalar.Scalar[T]](t *Tree[T], j J) (J, error) {
	if err := t.AddJoint(j); err != nil {
		var zero J
		return zero, err
	}
	return j, nil
}

func (t *Tree[T]) AddRevoluteJoint(name string, parent, child *Frame[T], axis mgl64.Vec3) (*RevoluteJoint[T], error) {
	j, err := NewRevoluteJoint(name, parent, child, axis)
	if err != nil {
		return nil, err
	}
	return AddJoint(t, j)
}

func (t *Tree[T]) Joint(name string) (Joint[T], error) {
	idx, ok := t.jointsByName[name]
	if !ok {
		return nil, fmt.Errorf("joint %q: %w", name, ErrUnknownName)
	}
	return t.joints[idx], nil
}

// RevoluteJointByName looks up a joint and checks its kind.
func (t *Tree[T]) RevoluteJointByName(name string) (*RevoluteJoint[T], error) {
	j, err := t.Joint(name)
	if err != nil {
		return nil, err
	}
	rj, ok := j.(*RevoluteJoint[T])
	if !ok {
		return nil, fmt.Errorf("joint %q: %w: not revolute", name, ErrUnknownName)
	}
	return rj, nil
}

func (t *Tree[T]) Joints() []Joint[T] { return slices.Clone(t.joints) }
func (t *Tree[T]) NumJoints() int     { return len(t.joints) }

func (t *Tree[T]) IsFinalized() bool  { return t.finalized }
func (t *Tree[T]) NumPositions() int  { return t.numPositions }
func (t *Tree[T]) NumVelocities() int { return t.numVelocities }
func (t *Tree[T]) NumMobilizers() int { return t.mobilizers.len() }

// Finalize builds every joint's blueprint exactly once, moves the mobilizers
// into the tree and assigns their offsets into q and v. Joints closer to the
// world frame get lower offsets.
func (t *Tree[T]) Finalize() error {
	if t.finalized {
		return fmt.Errorf("finalize: %w", ErrTreeFinalized)
	}
	order, err := t.jointOrder()
	if err != nil {
		return err
	}

	q, v := 0, 0
	for _, j := range order {
		bp := j.makeBlueprint()
		demand(bp != nil && len(bp.Mobilizers) > 0, "joint %q produced an empty blueprint", j.Name())

		handles := make([]MobilizerIndex, len(bp.Mobilizers))
		for i, m := range bp.Mobilizers {
			m.assignIndices(q, v)
			q += m.NumPositions()
			v += m.NumVelocities()
			handles[i] = t.mobilizers.insert(m)
		}
		j.bindImplementation(handles)
	}

	t.numPositions = q
	t.numVelocities = v
	t.finalized = true
	return nil
}

// jointOrder sorts joints by the depth of their child frame below the
// world. A frame without an inboard joint counts as welded to the world.
func (t *Tree[T]) jointOrder() ([]Joint[T], error) {
	depth := make([]int, len(t.joints))
	for i, j := range t.joints {
		d := 0
		f := j.FrameOnParent().index
		for {
			in, ok := t.inboard[f]
			if !ok {
				break
			}
			d++
			if d > len(t.joints) {
				return nil, fmt.Errorf("finalize: %w: joint %q is part of a loop", ErrTopology, j.Name())
			}
			f = t.joints[in].FrameOnParent().index
		}
		depth[i] = d
	}

	order := slices.Clone(t.joints)
	slices.SortStableFunc(order, func(a, b Joint[T]) int {
		return cmp.Compare(depth[a.Index()], depth[b.Index()])
	})
	return order, nil
}

// CreateDefaultContext returns a context with every coordinate at zero.
func (t *Tree[T]) CreateDefaultContext() (*TreeContext[T], error) {
	if !t.finalized {
		return nil, fmt.Errorf("create context: %w", ErrTreeNotFinalized)
	}
	return newTreeContext[T](t.id, t.numPositions, t.numVelocities), nil
}
