package multibody_test

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/revolute/internal/multibody"
	"github.com/san-kum/revolute/internal/scalar"
)

func randomAxis(rng *rand.Rand) mgl64.Vec3 {
	scale := math.Pow(10, rng.Float64()*12-6)
	for {
		v := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		if v.Len() > 1e-3 {
			return v.Mul(scale)
		}
	}
}

// pendulumChain builds a finalized n-link chain with the given axes.
func pendulumChain[T scalar.Scalar[T]](axes ...mgl64.Vec3) (*multibody.Tree[T], []*multibody.RevoluteJoint[T]) {
	tree := multibody.NewTree[T]()
	parent := tree.World()
	var joints []*multibody.RevoluteJoint[T]
	for i, axis := range axes {
		link, err := tree.AddFrame(string(rune('A' + i)))
		Expect(err).NotTo(HaveOccurred())
		j, err := tree.AddRevoluteJoint("j"+string(rune('A'+i)), parent, link, axis)
		Expect(err).NotTo(HaveOccurred())
		joints = append(joints, j)
		parent = link
	}
	Expect(tree.Finalize()).To(Succeed())
	return tree, joints
}

var _ = Describe("RevoluteJoint", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewPCG(7, 11))
	})

	Describe("construction", func() {
		It("stores any nonzero axis at unit length", func() {
			tree := multibody.NewTree[scalar.Real]()
			link, _ := tree.AddFrame("link")
			for range 200 {
				axis := randomAxis(rng)
				j, err := multibody.NewRevoluteJoint("pin", tree.World(), link, axis)
				Expect(err).NotTo(HaveOccurred())
				Expect(j.Axis().Len()).To(BeNumerically("~", 1, 1e-14))
				Expect(j.Axis().Dot(axis.Normalize())).To(BeNumerically("~", 1, 1e-12))
				Expect(j.NumDOFs()).To(Equal(1))
			}
		})

		DescribeTable("rejects near-zero axes for any frame pair",
			func(axis mgl64.Vec3, childIsWorld bool) {
				tree := multibody.NewTree[scalar.Real]()
				link, _ := tree.AddFrame("link")
				parent, child := tree.World(), link
				if childIsWorld {
					parent, child = link, tree.World()
				}
				_, err := multibody.NewRevoluteJoint("pin", parent, child, axis)
				Expect(err).To(MatchError(multibody.ErrConstructionPrecondition))
			},
			Entry("zero", mgl64.Vec3{}, false),
			Entry("zero, swapped frames", mgl64.Vec3{}, true),
			Entry("below epsilon", mgl64.Vec3{0, 1e-20, 1e-20}, false),
			Entry("negative below epsilon", mgl64.Vec3{-1e-17, 0, 0}, true),
		)
	})

	Describe("state accessors", func() {
		It("round-trips angle and rate exactly", func() {
			tree, joints := pendulumChain[scalar.Real](mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0})
			ctx, err := tree.CreateDefaultContext()
			Expect(err).NotTo(HaveOccurred())

			for range 100 {
				theta := scalar.Real(rng.NormFloat64() * 10)
				rate := scalar.Real(rng.NormFloat64() * 100)
				for _, j := range joints {
					_, err := j.SetAngle(ctx, theta)
					Expect(err).NotTo(HaveOccurred())
					_, err = j.SetAngularRate(ctx, rate)
					Expect(err).NotTo(HaveOccurred())

					Expect(j.Angle(ctx)).To(Equal(theta))
					Expect(j.AngularRate(ctx)).To(Equal(rate))
				}
			}
		})
	})

	Describe("AddInTorque", func() {
		var (
			tree   *multibody.Tree[scalar.Real]
			joints []*multibody.RevoluteJoint[scalar.Real]
			ctx    *multibody.TreeContext[scalar.Real]
			forces *multibody.Forces[scalar.Real]
		)

		BeforeEach(func() {
			tree, joints = pendulumChain[scalar.Real](mgl64.Vec3{0, 0, 2}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
			var err error
			ctx, err = tree.CreateDefaultContext()
			Expect(err).NotTo(HaveOccurred())
			forces, err = multibody.NewForces(tree)
			Expect(err).NotTo(HaveOccurred())
			copy(forces.MutableGeneralizedForces(), []scalar.Real{0.5, -0.25, 8})
		})

		It("accumulates into the joint's slot only", func() {
			Expect(joints[1].AddInTorque(ctx, 3, forces)).To(Succeed())
			Expect(joints[1].AddInTorque(ctx, -1, forces)).To(Succeed())
			Expect(forces.GeneralizedForces()).To(Equal([]scalar.Real{0.5, 1.75, 8}))
		})

		It("reproduces the reference scenario", func() {
			forces.SetZero()
			pin := joints[0]
			Expect(pin.Axis()).To(Equal(mgl64.Vec3{0, 0, 1}))

			_, err := pin.SetAngle(ctx, 1.5708)
			Expect(err).NotTo(HaveOccurred())
			Expect(pin.Angle(ctx)).To(Equal(scalar.Real(1.5708)))

			Expect(pin.AddInTorque(ctx, 3.0, forces)).To(Succeed())
			Expect(pin.AddInTorque(ctx, -1.0, forces)).To(Succeed())
			Expect(forces.GeneralizedForces()[pin.VelocityStart()]).To(Equal(scalar.Real(2.0)))
		})

		It("fails atomically on a wrongly sized aggregate", func() {
			wrong := multibody.NewForcesOfSize[scalar.Real](2)
			copy(wrong.MutableGeneralizedForces(), []scalar.Real{1, 2})

			Expect(joints[2].AddInTorque(ctx, 10, wrong)).To(MatchError(multibody.ErrSizeMismatch))
			Expect(wrong.GeneralizedForces()).To(Equal([]scalar.Real{1, 2}))
		})
	})

	Describe("cloning to the dual kind", func() {
		It("keeps the axis and dof count and stays independent", func() {
			src, joints := pendulumChain[scalar.Real](randomAxis(rng), randomAxis(rng))
			dst, err := multibody.CloneToScalar[scalar.Dual](src)
			Expect(err).NotTo(HaveOccurred())

			srcCtx, _ := src.CreateDefaultContext()
			dstCtx, _ := dst.CreateDefaultContext()

			for _, j := range joints {
				cj, err := dst.RevoluteJointByName(j.Name())
				Expect(err).NotTo(HaveOccurred())
				Expect(cj.Axis()).To(Equal(j.Axis()))
				Expect(cj.NumDOFs()).To(Equal(1))

				_, err = cj.SetAngle(dstCtx, scalar.NewDual(1, 1))
				Expect(err).NotTo(HaveOccurred())
				Expect(j.Angle(srcCtx)).To(Equal(scalar.Real(0)))

				_, err = j.SetAngularRate(srcCtx, 4)
				Expect(err).NotTo(HaveOccurred())
				Expect(cj.AngularRate(dstCtx)).To(Equal(scalar.Dual{}))
			}
		})
	})

	Describe("blueprint construction", func() {
		It("gives independently finalized trees independent mobilizers", func() {
			treeA, a := pendulumChain[scalar.Real](mgl64.Vec3{0, 0, 1})
			treeB, b := pendulumChain[scalar.Real](mgl64.Vec3{0, 0, 1})
			Expect(treeA.NumMobilizers()).To(Equal(1))
			Expect(treeB.NumMobilizers()).To(Equal(1))

			ctxA, _ := treeA.CreateDefaultContext()
			ctxB, _ := treeB.CreateDefaultContext()
			_, err := a[0].SetAngle(ctxA, 0.7)
			Expect(err).NotTo(HaveOccurred())
			_, err = b[0].SetAngle(ctxB, -0.7)
			Expect(err).NotTo(HaveOccurred())

			Expect(a[0].Angle(ctxA)).To(Equal(scalar.Real(0.7)))
			Expect(b[0].Angle(ctxB)).To(Equal(scalar.Real(-0.7)))

			_, err = a[0].Angle(ctxB)
			Expect(err).To(MatchError(multibody.ErrTypeMismatch))
		})
	})
})
