package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/coastal/internal/boundary"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/physics"
	"github.com/san-kum/coastal/internal/sim"
)

func quietLogger() sim.Option {
	l, _ := logtest.NewNullLogger()
	return sim.WithLogger(l)
}

var _ = Describe("Scenarios", func() {
	Describe("a point bump in a periodic shallow-water channel", func() {
		const (
			nx     = 100
			center = 50
			steps  = 50
		)
		var (
			g       *grid.Grid
			history *sim.History
			c       float64
		)

		BeforeEach(func() {
			var err error
			g, err = grid.New1D(nx, 1.0)
			Expect(err).NotTo(HaveOccurred())
			bc, err := boundary.New(g, boundary.Uniform(g, boundary.Wrap()))
			Expect(err).NotTo(HaveOccurred())
			sw, err := physics.NewShallowWater(9.81, 1.0)
			Expect(err).NotTo(HaveOccurred())

			c = math.Sqrt(9.81 * 1.0)
			dt := 0.9 * 1.0 / c
			s, err := sim.New(g, sw, bc, sim.Config{
				Dt:      dt,
				EndTime: steps * dt,
				Scheme:  "rk4",
			}, quietLogger())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Steps()).To(Equal(steps))

			eta := g.NewField()
			eta.Data[center] = 0.01
			x0 := dynamo.NewState().Set(physics.Elevation, eta).Set(physics.VelocityX, g.NewField())

			history, err = s.Run(context.Background(), x0)
			Expect(err).NotTo(HaveOccurred())
			Expect(history.StepsTaken).To(Equal(steps))
		})

		It("splits into two mirror-image fronts", func() {
			last, _ := history.Last()
			eta := last.Field(physics.Elevation).Data
			for k := 1; k <= 45; k++ {
				Expect(eta[center+k]).To(BeNumerically("~", eta[center-k], 1e-12), "offset %d", k)
			}
			u := last.Field(physics.VelocityX).Data
			for k := 1; k <= 45; k++ {
				Expect(u[center+k]).To(BeNumerically("~", -u[center-k], 1e-12), "offset %d", k)
			}
		})

		It("moves each front at about sqrt(g h)", func() {
			last, t := history.Last()
			eta := last.Field(physics.Elevation).Data
			peak, best := center+1, 0.0
			for i := center + 1; i < nx-1; i++ {
				if a := math.Abs(eta[i]); a > best {
					peak, best = i, a
				}
			}
			travelled := float64(peak - center)
			Expect(c * t).To(BeNumerically("~", 45, 0.5))
			Expect(travelled).To(BeNumerically(">=", 36))
			Expect(travelled).To(BeNumerically("<=", 50))
		})

		It("conserves volume over the periodic interior", func() {
			volume := func(s *dynamo.State) float64 {
				sum := 0.0
				for _, v := range s.Field(physics.Elevation).Data[1 : nx-1] {
					sum += v
				}
				return sum * g.Dx()
			}
			v0 := volume(history.States[0])
			Expect(v0).To(BeNumerically("~", 0.01, 1e-15))
			for _, s := range history.States {
				Expect(volume(s)).To(BeNumerically("~", v0, 1e-12))
			}
		})
	})

	Describe("a wave pulse on a periodic ring", func() {
		It("returns to its initial shape after one domain crossing", func() {
			const ring = 100
			g, err := grid.New1D(ring+2, 1.0)
			Expect(err).NotTo(HaveOccurred())
			bc, err := boundary.New(g, boundary.Uniform(g, boundary.Wrap()))
			Expect(err).NotTo(HaveOccurred())
			wave, err := physics.NewWave(1.0)
			Expect(err).NotTo(HaveOccurred())

			dt := 0.5
			s, err := sim.New(g, wave, bc, sim.Config{Dt: dt, EndTime: ring / wave.Celerity}, quietLogger())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Steps()).To(Equal(200))

			eta := g.NewField()
			for i := range eta.Data {
				x := float64(i - 51)
				eta.Data[i] = math.Exp(-x * x / (2 * 6 * 6))
			}
			h, err := s.Run(context.Background(), dynamo.NewState().Set(physics.Elevation, eta))
			Expect(err).NotTo(HaveOccurred())

			last, _ := h.Last()
			final := last.Field(physics.Elevation).Data
			worst := 0.0
			for i := 1; i <= ring; i++ {
				worst = math.Max(worst, math.Abs(final[i]-eta.Data[i]))
			}
			Expect(worst).To(BeNumerically("<", 0.03))

			Expect(h.Times[len(h.Times)-1]).To(BeNumerically("~", 100, 1e-9))
		})
	})
})
