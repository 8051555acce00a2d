package multibody

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/scalar"
)

// Mobilizer maps generalized coordinates to the relative motion of its
// outboard frame with respect to its inboard frame. Mobilizers keep no state;
// q and v live in a TreeContext at the offsets assigned by Tree.Finalize.
type Mobilizer[T scalar.Scalar[T]] interface {
	InboardFrame() *Frame[T]
	OutboardFrame() *Frame[T]
	NumPositions() int
	NumVelocities() int
	PositionStart() int
	VelocityStart() int

	// GeneralizedForcesFromArray returns the mobilizer's window into tau.
	// Writes through the window land in tau.
	GeneralizedForcesFromArray(tau []T) []T

	assignIndices(positionStart, velocityStart int)
}

// Rotation is a 3x3 rotation matrix, row-major.
type Rotation[T scalar.Scalar[T]] [3][3]T

// Values drops any derivative parts.
func (r Rotation[T]) Values() mgl64.Mat3 {
	var rows [3]mgl64.Vec3
	for i := range 3 {
		for j := range 3 {
			rows[i][j] = r[i][j].Value()
		}
	}
	return mgl64.Mat3FromRows(rows[0], rows[1], rows[2])
}

// Derivatives returns the ε parts of a dual rotation, i.e. dR/ds for whatever
// coordinate s was seeded.
func Derivatives(r Rotation[scalar.Dual]) mgl64.Mat3 {
	var rows [3]mgl64.Vec3
	for i := range 3 {
		for j := range 3 {
			rows[i][j] = r[i][j].Derivative()
		}
	}
	return mgl64.Mat3FromRows(rows[0], rows[1], rows[2])
}

// RevoluteMobilizer rotates the outboard frame M about a unit axis fixed in
// both the inboard frame F and M. One position (the angle) and one velocity.
type RevoluteMobilizer[T scalar.Scalar[T]] struct {
	inboard       *Frame[T]
	outboard      *Frame[T]
	axis          mgl64.Vec3
	positionStart int
	velocityStart int
}

func newRevoluteMobilizer[T scalar.Scalar[T]](inboard, outboard *Frame[T], axis mgl64.Vec3) *RevoluteMobilizer[T] {
	return &RevoluteMobilizer[T]{
		inboard:       inboard,
		outboard:      outboard,
		axis:          axis,
		positionStart: -1,
		velocityStart: -1,
	}
}

func (m *RevoluteMobilizer[T]) InboardFrame() *Frame[T]  { return m.inboard }
func (m *RevoluteMobilizer[T]) OutboardFrame() *Frame[T] { return m.outboard }
func (m *RevoluteMobilizer[T]) Axis() mgl64.Vec3         { return m.axis }
func (m *RevoluteMobilizer[T]) NumPositions() int        { return 1 }
func (m *RevoluteMobilizer[T]) NumVelocities() int       { return 1 }
func (m *RevoluteMobilizer[T]) PositionStart() int       { return m.positionStart }
func (m *RevoluteMobilizer[T]) VelocityStart() int       { return m.velocityStart }

func (m *RevoluteMobilizer[T]) assignIndices(positionStart, velocityStart int) {
	m.positionStart = positionStart
	m.velocityStart = velocityStart
}

func (m *RevoluteMobilizer[T]) Angle(ctx *TreeContext[T]) T {
	return ctx.positions[m.positionStart]
}

func (m *RevoluteMobilizer[T]) SetAngle(ctx *TreeContext[T], angle T) {
	ctx.positions[m.positionStart] = angle
}

func (m *RevoluteMobilizer[T]) AngularRate(ctx *TreeContext[T]) T {
	return ctx.velocities[m.velocityStart]
}

func (m *RevoluteMobilizer[T]) SetAngularRate(ctx *TreeContext[T], rate T) {
	ctx.velocities[m.velocityStart] = rate
}

func (m *RevoluteMobilizer[T]) GeneralizedForcesFromArray(tau []T) []T {
	demand(m.velocityStart >= 0 && m.velocityStart < len(tau),
		"velocity start %d outside force array of %d", m.velocityStart, len(tau))
	return tau[m.velocityStart : m.velocityStart+1 : m.velocityStart+1]
}

// CalcRotation returns R_FM for the angle stored in ctx, by Rodrigues'
// formula R = I cosθ + a aᵀ (1 - cosθ) + [a]× sinθ.
func (m *RevoluteMobilizer[T]) CalcRotation(ctx *TreeContext[T]) Rotation[T] {
	theta := m.Angle(ctx)
	c, s := theta.Cos(), theta.Sin()
	omc := scalar.From[T](1).Sub(c)

	a := m.axis
	skew := [3][3]float64{
		{0, -a[2], a[1]},
		{a[2], 0, -a[0]},
		{-a[1], a[0], 0},
	}

	var r Rotation[T]
	for i := range 3 {
		for j := range 3 {
			v := scalar.From[T](a[i] * a[j]).Mul(omc).Add(scalar.From[T](skew[i][j]).Mul(s))
			if i == j {
				v = v.Add(c)
			}
			r[i][j] = v
		}
	}
	return r
}

// CalcAngularVelocity returns w_FM = axis * θ̇, expressed in F.
func (m *RevoluteMobilizer[T]) CalcAngularVelocity(ctx *TreeContext[T]) [3]T {
	rate := m.AngularRate(ctx)
	var w [3]T
	for i := range 3 {
		w[i] = scalar.From[T](m.axis[i]).Mul(rate)
	}
	return w
}
