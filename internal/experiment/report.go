package experiment

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/multibody"
	"github.com/san-kum/revolute/internal/scalar"
)

type JointReport struct {
	Name          string     `json:"name"`
	Parent        string     `json:"parent"`
	Child         string     `json:"child"`
	Axis          mgl64.Vec3 `json:"axis"`
	PositionStart int        `json:"position_start"`
	VelocityStart int        `json:"velocity_start"`
	Angle         float64    `json:"angle"`
	Rate          float64    `json:"rate"`
	Torque        float64    `json:"torque"`
	Rotation      mgl64.Mat3 `json:"rotation"`
	// RotationDerivative is dR/dθ, only filled for the dual kind.
	RotationDerivative *mgl64.Mat3 `json:"rotation_derivative,omitempty"`
	AngularVelocity    mgl64.Vec3  `json:"angular_velocity"`
}

type Report struct {
	Scenario      string        `json:"scenario"`
	Kind          scalar.Kind   `json:"kind"`
	NumPositions  int           `json:"num_positions"`
	NumVelocities int           `json:"num_velocities"`
	NumMobilizers int           `json:"num_mobilizers"`
	Forces        []float64     `json:"forces"`
	Joints        []JointReport `json:"joints"`
}

// Report reads the model's current state back out as plain numbers.
func (m *Model[T]) Report(scenario string) (*Report, error) {
	kind := scalar.KindOf[T]()
	r := &Report{
		Scenario:      scenario,
		Kind:          kind,
		NumPositions:  m.Tree.NumPositions(),
		NumVelocities: m.Tree.NumVelocities(),
		NumMobilizers: m.Tree.NumMobilizers(),
		Forces:        values(m.Forces.GeneralizedForces()),
	}

	for _, j := range m.Joints {
		angle, err := j.Angle(m.Context)
		if err != nil {
			return nil, err
		}
		rate, err := j.AngularRate(m.Context)
		if err != nil {
			return nil, err
		}
		rot, err := j.CalcRotation(m.Context)
		if err != nil {
			return nil, err
		}
		w, err := j.CalcAngularVelocity(m.Context)
		if err != nil {
			return nil, err
		}

		jr := JointReport{
			Name:            j.Name(),
			Parent:          j.FrameOnParent().Name(),
			Child:           j.FrameOnChild().Name(),
			Axis:            j.Axis(),
			PositionStart:   j.PositionStart(),
			VelocityStart:   j.VelocityStart(),
			Angle:           angle.Value(),
			Rate:            rate.Value(),
			Torque:          r.Forces[j.VelocityStart()],
			Rotation:        rot.Values(),
			AngularVelocity: mgl64.Vec3{w[0].Value(), w[1].Value(), w[2].Value()},
		}
		if kind == scalar.KindDual {
			d := rotationDerivative(rot)
			jr.RotationDerivative = &d
		}
		r.Joints = append(r.Joints, jr)
	}
	return r, nil
}

func rotationDerivative[T scalar.Scalar[T]](r multibody.Rotation[T]) mgl64.Mat3 {
	var rows [3]mgl64.Vec3
	for i := range 3 {
		for j := range 3 {
			rows[i][j] = scalar.DerivativeOf(r[i][j])
		}
	}
	return mgl64.Mat3FromRows(rows[0], rows[1], rows[2])
}

func values[T scalar.Scalar[T]](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x.Value()
	}
	return out
}
