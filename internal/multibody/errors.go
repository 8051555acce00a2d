package multibody

import (
	"errors"
	"fmt"
)

// Domain errors for tree construction and joint access.
var (
	// ErrConstructionPrecondition indicates an argument a joint cannot be built from.
	ErrConstructionPrecondition = errors.New("multibody: construction precondition violated")

	// ErrSizeMismatch indicates a force array not sized to the tree's dofs.
	ErrSizeMismatch = errors.New("multibody: size does not match the tree")

	// ErrTypeMismatch indicates a context that is not a TreeContext of the owning tree.
	ErrTypeMismatch = errors.New("multibody: context type mismatch")

	// ErrTreeNotFinalized indicates state access before Finalize.
	ErrTreeNotFinalized = errors.New("multibody: tree not finalized")

	// ErrTreeFinalized indicates a topology change after Finalize.
	ErrTreeFinalized = errors.New("multibody: tree already finalized")

	// ErrTopology indicates frames that cannot form a tree.
	ErrTopology = errors.New("multibody: invalid topology")

	ErrDuplicateName = errors.New("multibody: duplicate name")
	ErrUnknownName   = errors.New("multibody: unknown name")
	ErrForeignFrame  = errors.New("multibody: frame belongs to another tree")
)

// JointError wraps an error with the joint and operation it came from.
type JointError struct {
	Joint   string
	Op      string
	Wrapped error
}

func (e *JointError) Error() string {
	return fmt.Sprintf("joint %q: %s: %v", e.Joint, e.Op, e.Wrapped)
}

func (e *JointError) Unwrap() error {
	return e.Wrapped
}

// InternalConsistencyError is the panic value raised when the package detects
// a broken invariant of its own. It is never returned as an error.
type InternalConsistencyError struct {
	Message string
}

func (e *InternalConsistencyError) Error() string {
	return "multibody: internal consistency: " + e.Message
}

func demand(cond bool, format string, args ...any) {
	if !cond {
		panic(&InternalConsistencyError{Message: fmt.Sprintf(format, args...)})
	}
}
