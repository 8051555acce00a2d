package scalar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/dual"
)

type Kind string

const (
	KindReal Kind = "real"
	KindDual Kind = "dual"
)

// Scalar is satisfied by exactly the supported arithmetic kinds.
type Scalar[T any] interface {
	Real | Dual

	Add(T) T
	Sub(T) T
	Mul(T) T
	Neg() T
	Sin() T
	Cos() T
	Value() float64
}

// From lifts a plain number into T. A Dual gets a zero derivative.
func From[T Scalar[T]](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *Real:
		*p = Real(v)
	case *Dual:
		*p = Dual{Real: v}
	}
	return out
}

// Variable lifts v as the independent variable of a derivative: a Dual gets
// derivative 1, a Real is just v.
func Variable[T Scalar[T]](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *Real:
		*p = Real(v)
	case *Dual:
		*p = NewDual(v, 1)
	}
	return out
}

// DerivativeOf returns the ε part of v, or 0 for kinds that carry none.
func DerivativeOf[T Scalar[T]](v T) float64 {
	if d, ok := any(v).(Dual); ok {
		return d.Derivative()
	}
	return 0
}

// Convert maps a value between kinds. Converting to the same kind is the
// identity; Dual to Real drops the derivative part.
func Convert[To Scalar[To], S Scalar[S]](v S) To {
	if same, ok := any(v).(To); ok {
		return same
	}
	var out To
	switch p := any(&out).(type) {
	case *Real:
		*p = Real(v.Value())
	case *Dual:
		*p = Dual{Real: v.Value()}
	}
	return out
}

// KindOf reports the kind T was instantiated with.
func KindOf[T Scalar[T]]() Kind {
	var zero T
	if _, ok := any(zero).(Dual); ok {
		return KindDual
	}
	return KindReal
}

func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindReal, "":
		return KindReal, nil
	case KindDual:
		return KindDual, nil
	}
	return "", fmt.Errorf("unknown scalar kind: %s", name)
}

func Kinds() []Kind {
	return []Kind{KindReal, KindDual}
}

type Real float64

func (a Real) Add(b Real) Real { return a + b }
func (a Real) Sub(b Real) Real { return a - b }
func (a Real) Mul(b Real) Real { return a * b }
func (a Real) Neg() Real       { return -a }
func (a Real) Value() float64  { return float64(a) }

func (a Real) Sin() Real { return Real(math.Sin(float64(a))) }
func (a Real) Cos() Real { return Real(math.Cos(float64(a))) }

// Dual is a dual number a + bε with ε² = 0. Real holds a, Emag holds b.
type Dual dual.Number

func NewDual(value, derivative float64) Dual {
	return Dual{Real: value, Emag: derivative}
}

func (a Dual) Add(b Dual) Dual { return Dual(dual.Add(dual.Number(a), dual.Number(b))) }
func (a Dual) Sub(b Dual) Dual { return Dual(dual.Sub(dual.Number(a), dual.Number(b))) }
func (a Dual) Mul(b Dual) Dual { return Dual(dual.Mul(dual.Number(a), dual.Number(b))) }
func (a Dual) Neg() Dual       { return Dual(dual.Scale(-1, dual.Number(a))) }
func (a Dual) Sin() Dual       { return Dual(dual.Sin(dual.Number(a))) }
func (a Dual) Cos() Dual       { return Dual(dual.Cos(dual.Number(a))) }
func (a Dual) Value() float64  { return a.Real }

// Derivative returns the ε coefficient.
func (a Dual) Derivative() float64 { return a.Emag }

func (a Dual) String() string {
	return fmt.Sprintf("%g%+gε", a.Real, a.Emag)
}
