package boundary_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/coastal/internal/boundary"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
)

func ramp(g *grid.Grid, offset float64) *dynamo.Field {
	f := g.NewField()
	for k := range f.Data {
		f.Data[k] = offset + float64(k)
	}
	return f
}

var _ = Describe("Handler", func() {
	var g1 *grid.Grid

	BeforeEach(func() {
		var err error
		g1, err = grid.New1D(6, 0.5)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("rejects an edge without a condition", func() {
			_, err := boundary.New(g1, boundary.Spec{grid.West: boundary.Free()})
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
			Expect(err.Error()).To(ContainSubstring("boundary.east"))
		})

		It("rejects periodic on only one of a pair", func() {
			_, err := boundary.New(g1, boundary.Spec{
				grid.West: boundary.Wrap(),
				grid.East: boundary.Free(),
			})
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("rejects edges the grid does not have", func() {
			spec := boundary.Uniform(g1, boundary.Free())
			spec[grid.North] = boundary.Free()
			_, err := boundary.New(g1, spec)
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("rejects a sponge wider than the axis", func() {
			_, err := boundary.New(g1, boundary.Spec{
				grid.West: boundary.Absorbing(10, 1),
				grid.East: boundary.Free(),
			})
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("defaults sponge strength to one", func() {
			h, err := boundary.New(g1, boundary.Spec{
				grid.West: boundary.Absorbing(2, 0),
				grid.East: boundary.Free(),
			})
			Expect(err).NotTo(HaveOccurred())
			c, ok := h.Condition(grid.West)
			Expect(ok).To(BeTrue())
			Expect(c.Strength).To(Equal(1.0))
		})
	})

	Describe("Apply", func() {
		It("never mutates its input and leaves the interior alone", func() {
			h, err := boundary.New(g1, boundary.Uniform(g1, boundary.Fixed(-1)))
			Expect(err).NotTo(HaveOccurred())

			in := dynamo.NewState().Set("eta", ramp(g1, 10))
			out, err := h.Apply(in, 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(in.Field("eta").Data).To(Equal([]float64{10, 11, 12, 13, 14, 15}))
			Expect(out.Field("eta").Data).To(Equal([]float64{-1, 11, 12, 13, 14, -1}))
		})

		It("drives Dirichlet edges from a time-varying source", func() {
			src := boundary.SourceFunc(func(t float64) float64 { return 2 * t })
			h, err := boundary.New(g1, boundary.Spec{
				grid.West: boundary.Driven(src, "eta"),
				grid.East: boundary.Free(),
			})
			Expect(err).NotTo(HaveOccurred())

			in := dynamo.NewState().Set("eta", ramp(g1, 0)).Set("u", ramp(g1, 100))
			out, err := h.Apply(in, 1.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Field("eta").Data[0]).To(Equal(3.0))
			Expect(out.Field("u").Data[0]).To(Equal(101.0), "non-driven fields copy their neighbour")
		})

		It("reflects the interior value for Neumann edges", func() {
			h, err := boundary.New(g1, boundary.Spec{
				grid.West: boundary.Free(),
				grid.East: boundary.Flux(2),
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := h.Apply(dynamo.NewState().Set("eta", ramp(g1, 0)), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Field("eta").Data[0]).To(Equal(1.0))
			// outward derivative 2 with dx 0.5 lifts the edge by 1
			Expect(out.Field("eta").Data[5]).To(Equal(5.0))
		})

		It("applies the Neumann gradient along the outward normal on the west edge", func() {
			h, err := boundary.New(g1, boundary.Spec{
				grid.West: boundary.Flux(2),
				grid.East: boundary.Flux(-2),
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := h.Apply(dynamo.NewState().Set("eta", ramp(g1, 0)), 0)
			Expect(err).NotTo(HaveOccurred())
			// edge = neighbour + gradient*dx on both sides
			Expect(out.Field("eta").Data[0]).To(Equal(2.0))
			Expect(out.Field("eta").Data[5]).To(Equal(3.0))
		})

		It("wraps periodic edges from the opposite interior point", func() {
			h, err := boundary.New(g1, boundary.Uniform(g1, boundary.Wrap()))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Periodic(0)).To(BeTrue())

			out, err := h.Apply(dynamo.NewState().Set("eta", ramp(g1, 0)), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Field("eta").Data).To(Equal([]float64{4, 1, 2, 3, 4, 1}))
		})

		It("damps smoothly inside a sponge layer", func() {
			h, err := boundary.New(g1, boundary.Spec{
				grid.West: boundary.Free(),
				grid.East: boundary.Absorbing(3, 1),
			})
			Expect(err).NotTo(HaveOccurred())

			in := dynamo.NewState().Set("eta", g1.NewField().Fill(1))
			out, err := h.Apply(in, 0)
			Expect(err).NotTo(HaveOccurred())

			eta := out.Field("eta").Data
			Expect(eta[5]).To(BeNumerically("~", 0, 1e-15))
			Expect(eta[4]).To(BeNumerically("~", 1-4.0/9, 1e-15))
			Expect(eta[3]).To(BeNumerically("~", 1-1.0/9, 1e-15))
			Expect(eta[2]).To(Equal(1.0))
			Expect(eta[3]).To(BeNumerically(">", eta[4]))
		})

		It("reports fields that do not match the grid", func() {
			h, _ := boundary.New(g1, boundary.Uniform(g1, boundary.Free()))
			_, err := h.Apply(dynamo.NewState().Set("eta", dynamo.NewField(3, 1)), 0)
			Expect(err).To(MatchError(dynamo.ErrShape))
		})
	})

	Describe("walls in 2D", func() {
		It("zeroes the normal velocity and keeps the tangential one", func() {
			g2, err := grid.New2D(4, 3, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			h, err := boundary.New(g2, boundary.Uniform(g2, boundary.Reflective()))
			Expect(err).NotTo(HaveOccurred())

			in := dynamo.NewState().
				Set("eta", ramp(g2, 0)).
				Set("u", g2.NewField().Fill(3)).
				Set("v", g2.NewField().Fill(-2))
			out, err := h.Apply(in, 0)
			Expect(err).NotTo(HaveOccurred())

			u, v, eta := out.Field("u"), out.Field("v"), out.Field("eta")
			Expect(u.At(0, 1)).To(Equal(0.0))
			Expect(u.At(3, 1)).To(Equal(0.0))
			Expect(u.At(1, 1)).To(Equal(3.0))
			Expect(v.At(1, 0)).To(Equal(0.0))
			Expect(v.At(1, 2)).To(Equal(0.0))
			Expect(v.At(0, 1)).To(Equal(-2.0), "tangential component on the west wall")
			Expect(eta.At(0, 1)).To(Equal(eta.At(1, 1)))
		})
	})
})
