// Package scalar defines the arithmetic kinds a multibody tree can be
// instantiated over.
//
// The set is closed:
//
//   - [Real]: plain float64 arithmetic
//   - [Dual]: forward-mode dual numbers carrying one directional derivative
//
// Generic code constrains its type parameter with [Scalar], which lists both
// kinds in its type set. Instantiating with any other type is rejected by the
// compiler.
//
// # Example
//
//	theta := scalar.NewDual(0.3, 1) // seed d/dθ
//	s := theta.Sin()
//	fmt.Println(s.Value(), s.Derivative()) // sin(0.3), cos(0.3)
package scalar
