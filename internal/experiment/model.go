package experiment

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/config"
	"github.com/san-kum/revolute/internal/multibody"
	"github.com/san-kum/revolute/internal/scalar"
)

// Model is a finalized tree built from a scenario together with one state
// and one force aggregate.
type Model[T scalar.Scalar[T]] struct {
	Tree    *multibody.Tree[T]
	Joints  []*multibody.RevoluteJoint[T]
	Context *multibody.TreeContext[T]
	Forces  *multibody.Forces[T]
}

// Build creates and finalizes the tree described by cfg. No state or torque
// is applied yet.
func Build[T scalar.Scalar[T]](cfg *config.Config) (*Model[T], error) {
	tree := multibody.NewTree[T]()
	for _, name := range cfg.Frames {
		if _, err := tree.AddFrame(name); err != nil {
			return nil, err
		}
	}

	joints := make([]*multibody.RevoluteJoint[T], 0, len(cfg.Joints))
	for _, jc := range cfg.Joints {
		parent, err := tree.Frame(jc.Parent)
		if err != nil {
			return nil, fmt.Errorf("joint %q: %w", jc.Name, err)
		}
		child, err := tree.Frame(jc.Child)
		if err != nil {
			return nil, fmt.Errorf("joint %q: %w", jc.Name, err)
		}
		j, err := tree.AddRevoluteJoint(jc.Name, parent, child, mgl64.Vec3(jc.Axis))
		if err != nil {
			return nil, err
		}
		joints = append(joints, j)
	}

	if err := tree.Finalize(); err != nil {
		return nil, err
	}
	return wrap(tree, joints)
}

func wrap[T scalar.Scalar[T]](tree *multibody.Tree[T], joints []*multibody.RevoluteJoint[T]) (*Model[T], error) {
	ctx, err := tree.CreateDefaultContext()
	if err != nil {
		return nil, err
	}
	forces, err := multibody.NewForces(tree)
	if err != nil {
		return nil, err
	}
	return &Model[T]{Tree: tree, Joints: joints, Context: ctx, Forces: forces}, nil
}

// Apply writes each joint's angle and rate into the context and injects its
// torques, in scenario order. Angles are lifted with lift, so passing
// scalar.Variable seeds every angle as an independent variable.
func (m *Model[T]) Apply(cfg *config.Config, lift func(float64) T) error {
	if len(cfg.Joints) != len(m.Joints) {
		return fmt.Errorf("scenario has %d joints, model has %d", len(cfg.Joints), len(m.Joints))
	}
	for i, jc := range cfg.Joints {
		j := m.Joints[i]
		if _, err := j.SetAngle(m.Context, lift(jc.Angle)); err != nil {
			return err
		}
		if _, err := j.SetAngularRate(m.Context, scalar.From[T](jc.Rate)); err != nil {
			return err
		}
		for _, tau := range jc.Torques {
			if err := j.AddInTorque(m.Context, scalar.From[T](tau), m.Forces); err != nil {
				return err
			}
		}
	}
	return nil
}

// Joint looks a joint up by name.
func (m *Model[T]) Joint(name string) (*multibody.RevoluteJoint[T], error) {
	return m.Tree.RevoluteJointByName(name)
}

// CloneTo copies the model to another scalar kind. State and forces are
// converted; the clone shares nothing with m.
func CloneTo[To scalar.Scalar[To], From scalar.Scalar[From]](m *Model[From]) (*Model[To], error) {
	tree, err := multibody.CloneToScalar[To](m.Tree)
	if err != nil {
		return nil, err
	}
	joints := make([]*multibody.RevoluteJoint[To], len(m.Joints))
	for i, j := range m.Joints {
		if joints[i], err = tree.RevoluteJointByName(j.Name()); err != nil {
			return nil, err
		}
	}
	ctx, err := multibody.ConvertContext(m.Context, tree)
	if err != nil {
		return nil, err
	}
	forces, err := multibody.NewForces(tree)
	if err != nil {
		return nil, err
	}
	dst := forces.MutableGeneralizedForces()
	for i, tau := range m.Forces.GeneralizedForces() {
		dst[i] = scalar.Convert[To](tau)
	}
	return &Model[To]{Tree: tree, Joints: joints, Context: ctx, Forces: forces}, nil
}
