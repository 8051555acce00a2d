// Package multibody models the joints of a multibody tree and the machinery
// that binds them to their low-level motion models.
//
// The package is organised around a few types:
//
//   - [Tree]: owns frames, joints and the mobilizer arena
//   - [Frame]: a named reference frame registered with a tree
//   - [RevoluteJoint]: single-dof rotation about a fixed unit axis
//   - [RevoluteMobilizer]: the kinematic implementation of a revolute joint
//   - [TreeContext]: the generalized positions and velocities of a tree
//   - [Forces]: the generalized-force array sized to the tree's dof count
//
// Joints are declarative. [Tree.Finalize] asks every joint for a blueprint,
// moves the resulting mobilizers into the tree's arena and hands each joint a
// typed handle to its mobilizer. From then on joint accessors thread a
// context through to the mobilizer.
//
// # Example
//
//	tree := multibody.NewTree[scalar.Real]()
//	link, _ := tree.AddFrame("link")
//	pin, _ := tree.AddRevoluteJoint("pin", tree.World(), link, mgl64.Vec3{0, 0, 2})
//	_ = tree.Finalize()
//
//	ctx, _ := tree.CreateDefaultContext()
//	pin.SetAngle(ctx, 1.5708)
//
//	forces, _ := multibody.NewForces(tree)
//	_ = pin.AddInTorque(ctx, 3.0, forces)
//
// # Scalar kinds
//
// Every type is parameterized by a [scalar.Scalar]. [CloneToScalar] rebuilds a
// tree over a different kind, typically [scalar.Dual] to obtain derivatives
// with respect to a seeded coordinate.
//
// # Thread Safety
//
// Nothing here locks. A finalized tree is never mutated, so distinct
// contexts and force arrays may be used from distinct goroutines. A single
// context must not be shared.
package multibody
