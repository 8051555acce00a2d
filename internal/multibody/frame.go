package multibody

import "github.com/san-kum/revolute/internal/scalar"

// WorldFrameName is the name of frame 0 in every tree.
const WorldFrameName = "world"

type FrameIndex int

// Frame is a reference frame registered with a tree. Joints hold frames by
// pointer; the tree owns them.
type Frame[T scalar.Scalar[T]] struct {
	name   string
	index  FrameIndex
	treeID uint64
}

func (f *Frame[T]) Name() string      { return f.name }
func (f *Frame[T]) Index() FrameIndex { return f.index }
func (f *Frame[T]) IsWorld() bool     { return f.index == 0 }
