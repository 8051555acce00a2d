package multibody

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/revolute/internal/scalar"
)

func TestNewRevoluteJoint_NormalizesAxis(t *testing.T) {
	tests := []struct {
		name string
		axis mgl64.Vec3
		want mgl64.Vec3
	}{
		{"unit z", mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1}},
		{"scaled z", mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 1}},
		{"negative x", mgl64.Vec3{-7, 0, 0}, mgl64.Vec3{-1, 0, 0}},
		{"tiny y", mgl64.Vec3{0, 1e-9, 0}, mgl64.Vec3{0, 1, 0}},
		{"huge", mgl64.Vec3{1e300, 1e300, 0}, mgl64.Vec3{math.Sqrt2 / 2, math.Sqrt2 / 2, 0}},
		{"diagonal", mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1}.Normalize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree[scalar.Real]()
			link, _ := tree.AddFrame("link")

			j, err := NewRevoluteJoint(tt.name, tree.World(), link, tt.axis)
			if err != nil {
				t.Fatalf("construct: %v", err)
			}
			if !vecNear(j.Axis(), tt.want, 1e-15) {
				t.Errorf("Axis() = %v, want %v", j.Axis(), tt.want)
			}
			if math.Abs(j.Axis().Len()-1) > 1e-15 {
				t.Errorf("|axis| = %v", j.Axis().Len())
			}
		})
	}
}

func TestNewRevoluteJoint_ExactUnitAxis(t *testing.T) {
	tree := NewTree[scalar.Real]()
	link, _ := tree.AddFrame("link")

	j, err := NewRevoluteJoint("pin", tree.World(), link, mgl64.Vec3{0, 0, 2})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(mgl64.Vec3{0, 0, 1}, j.Axis()); diff != "" {
		t.Errorf("axis mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRevoluteJoint_RejectsDegenerateAxis(t *testing.T) {
	tests := []struct {
		name string
		axis mgl64.Vec3
	}{
		{"zero", mgl64.Vec3{}},
		{"below epsilon", mgl64.Vec3{1e-17, 0, 0}},
		{"nan", mgl64.Vec3{math.NaN(), 0, 1}},
		{"inf", mgl64.Vec3{0, math.Inf(1), 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree[scalar.Real]()
			link, _ := tree.AddFrame("link")

			_, err := NewRevoluteJoint("pin", tree.World(), link, tt.axis)
			if !errors.Is(err, ErrConstructionPrecondition) {
				t.Errorf("expected ErrConstructionPrecondition, got %v", err)
			}
			var je *JointError
			if !errors.As(err, &je) || je.Joint != "pin" {
				t.Errorf("expected JointError for pin, got %v", err)
			}
		})
	}
}

func TestNewRevoluteJoint_NilFrame(t *testing.T) {
	tree := NewTree[scalar.Real]()
	if _, err := NewRevoluteJoint("pin", tree.World(), nil, mgl64.Vec3{0, 0, 1}); !errors.Is(err, ErrConstructionPrecondition) {
		t.Errorf("expected ErrConstructionPrecondition, got %v", err)
	}
}

func TestRevoluteJoint_NumDOFs(t *testing.T) {
	_, joints := chain[scalar.Real](t, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
	for _, j := range joints {
		if j.NumDOFs() != 1 {
			t.Errorf("%s: NumDOFs() = %d", j.Name(), j.NumDOFs())
		}
		if j.PositionStart() != -1 || j.VelocityStart() != -1 {
			t.Errorf("%s: offsets assigned before finalize", j.Name())
		}
	}
}

func TestRevoluteJoint_AngleRoundTrip(t *testing.T) {
	_, joints, ctx := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 2}, mgl64.Vec3{1, 0, 0})

	for _, theta := range []scalar.Real{0, 1.5708, -3.25, 1e-300, 42} {
		if _, err := joints[1].SetAngle(ctx, theta); err != nil {
			t.Fatalf("set angle: %v", err)
		}
		got, err := joints[1].Angle(ctx)
		if err != nil {
			t.Fatalf("angle: %v", err)
		}
		if got != theta {
			t.Errorf("Angle() = %v, want %v", got, theta)
		}
	}

	first, _ := joints[0].Angle(ctx)
	if first != 0 {
		t.Errorf("neighbouring joint changed: %v", first)
	}
}

func TestRevoluteJoint_RateRoundTrip(t *testing.T) {
	_, joints, ctx := finalized[scalar.Dual](t, mgl64.Vec3{0, 0, 1})

	rate := scalar.NewDual(-2.5, 1)
	if _, err := joints[0].SetAngularRate(ctx, rate); err != nil {
		t.Fatal(err)
	}
	got, err := joints[0].AngularRate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rate, got); diff != "" {
		t.Errorf("rate mismatch (-want +got):\n%s", diff)
	}
}

func TestRevoluteJoint_SetterChaining(t *testing.T) {
	_, joints, ctx := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 1})

	j, err := joints[0].SetAngle(ctx, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.SetAngularRate(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if q := ctx.Positions(); q[0] != 0.5 {
		t.Errorf("q = %v", q)
	}
	if v := ctx.Velocities(); v[0] != 2 {
		t.Errorf("v = %v", v)
	}
}

func TestRevoluteJoint_ContextTypeMismatch(t *testing.T) {
	_, joints, _ := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 1})
	_, _, otherCtx := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 1})

	var nilCtx *TreeContext[scalar.Real]
	tests := []struct {
		name string
		ctx  Context[scalar.Real]
	}{
		{"nil interface", nil},
		{"typed nil", nilCtx},
		{"foreign kind", foreignContext[scalar.Real]{}},
		{"other tree", otherCtx},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := joints[0].Angle(tt.ctx); !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("Angle: expected ErrTypeMismatch, got %v", err)
			}
			if _, err := joints[0].SetAngle(tt.ctx, 1); !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("SetAngle: expected ErrTypeMismatch, got %v", err)
			}
			if _, err := joints[0].AngularRate(tt.ctx); !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("AngularRate: expected ErrTypeMismatch, got %v", err)
			}
			if _, err := joints[0].SetAngularRate(tt.ctx, 1); !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("SetAngularRate: expected ErrTypeMismatch, got %v", err)
			}
		})
	}

	if q := otherCtx.Positions(); q[0] != 0 {
		t.Errorf("other tree's context was written: %v", q)
	}
}

func TestRevoluteJoint_BeforeFinalize(t *testing.T) {
	tree, joints := chain[scalar.Real](t, mgl64.Vec3{0, 0, 1})

	if _, err := tree.CreateDefaultContext(); !errors.Is(err, ErrTreeNotFinalized) {
		t.Errorf("CreateDefaultContext: expected ErrTreeNotFinalized, got %v", err)
	}
	ctx := newTreeContext[scalar.Real](tree.id, 1, 1)
	if _, err := joints[0].Angle(ctx); !errors.Is(err, ErrTreeNotFinalized) {
		t.Errorf("Angle: expected ErrTreeNotFinalized, got %v", err)
	}
	if err := joints[0].AddInTorque(ctx, 1, NewForcesOfSize[scalar.Real](1)); !errors.Is(err, ErrTreeNotFinalized) {
		t.Errorf("AddInTorque: expected ErrTreeNotFinalized, got %v", err)
	}
}

func TestRevoluteJoint_AddInTorqueAccumulates(t *testing.T) {
	tree, joints, ctx := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0})
	forces, err := NewForces(tree)
	if err != nil {
		t.Fatal(err)
	}
	copy(forces.MutableGeneralizedForces(), []scalar.Real{10, 20, 30})

	if err := joints[1].AddInTorque(ctx, 3.0, forces); err != nil {
		t.Fatal(err)
	}
	if err := joints[1].AddInTorque(ctx, -1.0, forces); err != nil {
		t.Fatal(err)
	}

	want := []scalar.Real{10, 22, 30}
	if diff := cmp.Diff(want, forces.GeneralizedForces()); diff != "" {
		t.Errorf("forces mismatch (-want +got):\n%s", diff)
	}
}

func TestRevoluteJoint_AddInTorqueSizeMismatch(t *testing.T) {
	_, joints, ctx := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0})

	for _, n := range []int{0, 1, 3} {
		forces := NewForcesOfSize[scalar.Real](n)
		for i := range forces.MutableGeneralizedForces() {
			forces.MutableGeneralizedForces()[i] = scalar.Real(i + 1)
		}
		before := forces.GeneralizedForces()

		err := joints[0].AddInTorque(ctx, 5, forces)
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("size %d: expected ErrSizeMismatch, got %v", n, err)
		}
		if diff := cmp.Diff(before, forces.GeneralizedForces()); diff != "" {
			t.Errorf("size %d: forces modified (-before +after):\n%s", n, diff)
		}
	}

	if err := joints[0].AddInTorque(ctx, 5, nil); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("nil forces: expected ErrSizeMismatch, got %v", err)
	}
}

func TestRevoluteJoint_AddInTorqueBadContextLeavesForces(t *testing.T) {
	tree, joints, _ := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 1})
	forces, _ := NewForces(tree)

	err := joints[0].AddInTorque(foreignContext[scalar.Real]{}, 5, forces)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if forces.GeneralizedForces()[0] != 0 {
		t.Errorf("forces modified: %v", forces.GeneralizedForces())
	}
}

func TestRevoluteJoint_ForceHookRejectsOtherDOFs(t *testing.T) {
	tree, joints, _ := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 1})
	forces, _ := NewForces(tree)

	expectInternalPanic(t, func() { joints[0].addInOneForce(1, 1, forces) })
	expectInternalPanic(t, func() { joints[0].addInOneForce(-1, 1, forces) })
}

func TestRevoluteJoint_RotationMatchesQuaternion(t *testing.T) {
	axis := mgl64.Vec3{1, -2, 0.5}
	_, joints, ctx := finalized[scalar.Real](t, axis)

	for _, theta := range []float64{0, 0.3, -1.2, math.Pi} {
		joints[0].SetAngle(ctx, scalar.Real(theta))
		r, err := joints[0].CalcRotation(ctx)
		if err != nil {
			t.Fatal(err)
		}
		q := mgl64.QuatRotate(theta, joints[0].Axis())
		for _, v := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
			got := r.Values().Mul3x1(v)
			want := q.Rotate(v)
			if !vecNear(got, want, 1e-12) {
				t.Errorf("theta %v: R*%v = %v, want %v", theta, v, got, want)
			}
		}
		if got := r.Values().Mul3x1(joints[0].Axis()); !vecNear(got, joints[0].Axis(), 1e-12) {
			t.Errorf("axis not invariant: %v", got)
		}
	}
}

func TestRevoluteJoint_DualRotationDerivative(t *testing.T) {
	_, joints, ctx := finalized[scalar.Dual](t, mgl64.Vec3{0, 0, 3})

	theta := 0.3
	joints[0].SetAngle(ctx, scalar.NewDual(theta, 1))
	r, err := joints[0].CalcRotation(ctx)
	if err != nil {
		t.Fatal(err)
	}

	s, c := math.Sin(theta), math.Cos(theta)
	want := mgl64.Mat3FromRows(
		mgl64.Vec3{-s, -c, 0},
		mgl64.Vec3{c, -s, 0},
		mgl64.Vec3{0, 0, 0},
	)
	if got := Derivatives(r); !matNear(got, want, 1e-12) {
		t.Errorf("dR/dθ = %v, want %v", got, want)
	}
}

func TestRevoluteJoint_AngularVelocity(t *testing.T) {
	_, joints, ctx := finalized[scalar.Real](t, mgl64.Vec3{0, 2, 0})
	joints[0].SetAngularRate(ctx, 4)

	w, err := joints[0].CalcAngularVelocity(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([3]scalar.Real{0, 4, 0}, w); diff != "" {
		t.Errorf("w_FM mismatch (-want +got):\n%s", diff)
	}
}

func TestRevoluteJoint_ReferenceScenario(t *testing.T) {
	tree, joints, ctx := finalized[scalar.Real](t, mgl64.Vec3{0, 0, 2})
	pin := joints[0]

	if pin.Axis() != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("axis = %v", pin.Axis())
	}

	pin.SetAngle(ctx, 1.5708)
	if got, _ := pin.Angle(ctx); got != 1.5708 {
		t.Errorf("angle = %v", got)
	}

	forces, _ := NewForces(tree)
	if err := pin.AddInTorque(ctx, 3.0, forces); err != nil {
		t.Fatal(err)
	}
	if err := pin.AddInTorque(ctx, -1.0, forces); err != nil {
		t.Fatal(err)
	}
	if got := forces.GeneralizedForces()[pin.VelocityStart()]; got != 2.0 {
		t.Errorf("torque slot = %v, want 2", got)
	}
}
