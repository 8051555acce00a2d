package multibody

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/scalar"
)

// axisEpsilon is float64 machine epsilon.
var axisEpsilon = math.Nextafter(1, 2) - 1

// RevoluteJoint lets the child frame M rotate relative to the parent frame F
// about an axis â with the same measures in F and M. The angle is positive by
// the right-hand rule about â.
type RevoluteJoint[T scalar.Scalar[T]] struct {
	jointBase[T]
	axis      mgl64.Vec3
	mobilizer MobilizerHandle[*RevoluteMobilizer[T]]
}

// NewRevoluteJoint builds a joint rotating child relative to parent about
// axis. Only the direction of axis is kept; a zero (or non-finite) axis is
// rejected with ErrConstructionPrecondition.
func NewRevoluteJoint[T scalar.Scalar[T]](name string, parent, child *Frame[T], axis mgl64.Vec3) (*RevoluteJoint[T], error) {
	if parent == nil || child == nil {
		return nil, &JointError{Joint: name, Op: "construct", Wrapped: fmt.Errorf("%w: nil frame", ErrConstructionPrecondition)}
	}
	unit, err := normalizeAxis(axis)
	if err != nil {
		return nil, &JointError{Joint: name, Op: "construct", Wrapped: err}
	}
	return newRevoluteJoint(name, parent, child, unit), nil
}

func newRevoluteJoint[T scalar.Scalar[T]](name string, parent, child *Frame[T], unitAxis mgl64.Vec3) *RevoluteJoint[T] {
	return &RevoluteJoint[T]{
		jointBase: jointBase[T]{name: name, parent: parent, child: child, index: -1},
		axis:      unitAxis,
	}
}

func normalizeAxis(axis mgl64.Vec3) (mgl64.Vec3, error) {
	scale := 0.0
	for _, c := range axis {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return mgl64.Vec3{}, fmt.Errorf("%w: axis %v is not finite", ErrConstructionPrecondition, axis)
		}
		scale = math.Max(scale, math.Abs(c))
	}
	if axis.Len() <= axisEpsilon {
		return mgl64.Vec3{}, fmt.Errorf("%w: axis %v is zero", ErrConstructionPrecondition, axis)
	}
	// Pre-scaling keeps Len finite for very large components.
	return axis.Mul(1 / scale).Normalize(), nil
}

// Axis returns the unit axis of rotation, equal in F and M.
func (j *RevoluteJoint[T]) Axis() mgl64.Vec3 { return j.axis }

func (j *RevoluteJoint[T]) NumDOFs() int { return 1 }

func (j *RevoluteJoint[T]) PositionStart() int {
	if !j.mobilizer.IsValid() {
		return -1
	}
	return j.getMobilizer().PositionStart()
}

func (j *RevoluteJoint[T]) VelocityStart() int {
	if !j.mobilizer.IsValid() {
		return -1
	}
	return j.getMobilizer().VelocityStart()
}

// Angle returns the joint angle stored in ctx, in radians.
func (j *RevoluteJoint[T]) Angle(ctx Context[T]) (T, error) {
	tc, err := j.treeContext("angle", ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return j.getMobilizer().Angle(tc), nil
}

// SetAngle stores angle in ctx and returns j for chaining.
func (j *RevoluteJoint[T]) SetAngle(ctx Context[T], angle T) (*RevoluteJoint[T], error) {
	tc, err := j.treeContext("set angle", ctx)
	if err != nil {
		return j, err
	}
	j.getMobilizer().SetAngle(tc, angle)
	return j, nil
}

// AngularRate returns the angle's rate of change in ctx, in rad/s.
func (j *RevoluteJoint[T]) AngularRate(ctx Context[T]) (T, error) {
	tc, err := j.treeContext("angular rate", ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return j.getMobilizer().AngularRate(tc), nil
}

func (j *RevoluteJoint[T]) SetAngularRate(ctx Context[T], rate T) (*RevoluteJoint[T], error) {
	tc, err := j.treeContext("set angular rate", ctx)
	if err != nil {
		return j, err
	}
	j.getMobilizer().SetAngularRate(tc, rate)
	return j, nil
}

// CalcRotation returns R_FM for the angle in ctx.
func (j *RevoluteJoint[T]) CalcRotation(ctx Context[T]) (Rotation[T], error) {
	tc, err := j.treeContext("rotation", ctx)
	if err != nil {
		return Rotation[T]{}, err
	}
	return j.getMobilizer().CalcRotation(tc), nil
}

func (j *RevoluteJoint[T]) CalcAngularVelocity(ctx Context[T]) ([3]T, error) {
	tc, err := j.treeContext("angular velocity", ctx)
	if err != nil {
		return [3]T{}, err
	}
	return j.getMobilizer().CalcAngularVelocity(tc), nil
}

// AddInTorque adds torque about the joint axis into forces. Torques
// accumulate; nothing is overwritten. On error forces is left untouched.
func (j *RevoluteJoint[T]) AddInTorque(ctx Context[T], torque T, forces *Forces[T]) error {
	if err := j.checkForces("add torque", forces); err != nil {
		return err
	}
	if _, err := j.treeContext("add torque", ctx); err != nil {
		return err
	}
	j.addInOneForce(0, torque, forces)
	return nil
}

func (j *RevoluteJoint[T]) addInOneForce(dof int, tau T, forces *Forces[T]) {
	demand(dof == 0, "joint %q has one dof, got dof %d", j.name, dof)
	slot := j.getMobilizer().GeneralizedForcesFromArray(forces.MutableGeneralizedForces())
	slot[dof] = slot[dof].Add(tau)
}

func (j *RevoluteJoint[T]) makeBlueprint() *Blueprint[T] {
	return &Blueprint[T]{
		Mobilizers: []Mobilizer[T]{newRevoluteMobilizer(j.parent, j.child, j.axis)},
	}
}

func (j *RevoluteJoint[T]) bindImplementation(handles []MobilizerIndex) {
	demand(!j.mobilizer.IsValid(), "joint %q: blueprint already built", j.name)
	demand(len(handles) == 1, "joint %q: expected 1 mobilizer, got %d", j.name, len(handles))
	j.mobilizer = bindHandle[*RevoluteMobilizer[T]](j.tree.mobilizers, handles[0])
}

func (j *RevoluteJoint[T]) getMobilizer() *RevoluteMobilizer[T] {
	return resolve(j.tree.mobilizers, j.mobilizer)
}

type revoluteTemplate struct {
	templateHeader
	axis mgl64.Vec3
}

func (t revoluteTemplate) header() templateHeader { return t.templateHeader }

func (j *RevoluteJoint[T]) template() jointTemplate {
	return revoluteTemplate{templateHeader: j.describe(), axis: j.axis}
}
