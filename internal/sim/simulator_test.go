package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/coastal/internal/boundary"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/physics"
)

// decay is du/dt = -rate u with no signal speed.
type decay struct {
	rate    float64
	nanFrom float64
}

func (d *decay) Name() string                              { return "decay" }
func (d *decay) Fields(*grid.Grid) []string                { return []string{"u"} }
func (d *decay) CharacteristicSpeed(*dynamo.State) float64 { return 0 }
func (d *decay) HistoryDepth() int                         { return 1 }

func (d *decay) Evaluate(s *dynamo.State, _ *grid.Grid, t float64) (*dynamo.State, error) {
	out := s.Field("u").Scaled(-d.rate)
	if d.nanFrom > 0 && t >= d.nanFrom {
		out.Data[1] = math.NaN()
	}
	return dynamo.NewState().Set("u", out), nil
}

func quiet() Option {
	l, _ := logtest.NewNullLogger()
	return WithLogger(l)
}

func line(t *testing.T, n int, dx float64) (*grid.Grid, *boundary.Handler) {
	t.Helper()
	g, err := grid.New1D(n, dx)
	if err != nil {
		t.Fatal(err)
	}
	h, err := boundary.New(g, boundary.Uniform(g, boundary.Free()))
	if err != nil {
		t.Fatal(err)
	}
	return g, h
}

func uniform(g *grid.Grid, name string, v float64) *dynamo.State {
	return dynamo.NewState().Set(name, g.NewField().Fill(v))
}

func TestSimulatorRun(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, err := New(g, &decay{rate: 1}, bc, Config{Dt: 0.1, EndTime: 1}, quiet())
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Run(context.Background(), uniform(g, "u", 1))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Len() != 11 || len(result.Times) != 11 {
		t.Errorf("expected 11 records, got %d states and %d times", result.Len(), len(result.Times))
	}
	if result.StepsTaken != 10 || result.Status != Idle || s.Status() != Idle {
		t.Errorf("steps %d, status %s/%s", result.StepsTaken, result.Status, s.Status())
	}
	last, tEnd := result.Last()
	if math.Abs(tEnd-1) > 1e-12 {
		t.Errorf("final time = %g, want 1", tEnd)
	}
	if got, want := last.Field("u").Data[2], math.Pow(0.9, 10); math.Abs(got-want) > 1e-12 {
		t.Errorf("final u = %.6f, want %.6f", got, want)
	}
	if math.Abs(last.Field("u").Data[2]-math.Exp(-1)) > 0.05 {
		t.Errorf("final u %.4f too far from exp(-1)", last.Field("u").Data[2])
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	g, bc := line(t, 4, 1)
	wave, _ := physics.NewWave(1)

	tests := []struct {
		name string
		rhs  RHS
		cfg  Config
	}{
		{"zero dt", &decay{rate: 1}, Config{Dt: 0, EndTime: 1}},
		{"negative dt", &decay{rate: 1}, Config{Dt: -0.1, EndTime: 1}},
		{"zero duration", &decay{rate: 1}, Config{Dt: 0.1, EndTime: 0}},
		{"negative stride", &decay{rate: 1}, Config{Dt: 0.1, EndTime: 1, Stride: -2}},
		{"negative cfl", &decay{rate: 1}, Config{Dt: 0.1, EndTime: 1, CFL: -1}},
		{"unknown scheme", &decay{rate: 1}, Config{Dt: 0.1, EndTime: 1, Scheme: "rk45"}},
		{"leapfrog on first order", &decay{rate: 1}, Config{Dt: 0.1, EndTime: 1, Scheme: "leapfrog"}},
		{"euler on second order", wave, Config{Dt: 0.1, EndTime: 1, Scheme: "euler"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(g, tt.rhs, bc, tt.cfg, quiet())
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("err = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestCFLRejection(t *testing.T) {
	g, bc := line(t, 10, 1)
	sw, _ := physics.NewShallowWater(9.81, 1)
	limit := 1 / math.Sqrt(9.81)

	_, err := New(g, sw, bc, Config{Dt: 1.01 * limit, EndTime: 1}, quiet())
	var stab *dynamo.StabilityError
	if !errors.As(err, &stab) {
		t.Fatalf("err = %v, want StabilityError", err)
	}
	if math.Abs(stab.Bound-limit) > 1e-12 {
		t.Errorf("bound = %g, want %g", stab.Bound, limit)
	}

	if _, err := New(g, sw, bc, Config{Dt: 0.99 * limit, EndTime: 1}, quiet()); err != nil {
		t.Errorf("dt below the bound rejected: %v", err)
	}
	if _, err := New(g, sw, bc, Config{Dt: 0.6 * limit, EndTime: 1, CFL: 0.5}, quiet()); !errors.Is(err, dynamo.ErrStability) {
		t.Errorf("CFL target not applied: %v", err)
	}
}

func TestDiffusiveBound(t *testing.T) {
	g, bc := line(t, 10, 0.1)
	vs, _ := physics.NewViscous(0.5, false)
	// dx^2 / (2 nu) = 0.01
	if _, err := New(g, vs, bc, Config{Dt: 0.02, EndTime: 1}, quiet()); !errors.Is(err, dynamo.ErrStability) {
		t.Errorf("err = %v, want ErrStability", err)
	}
	if _, err := New(g, vs, bc, Config{Dt: 0.009, EndTime: 1}, quiet()); err != nil {
		t.Errorf("stable step rejected: %v", err)
	}
}

func TestAutoAdjustClamps(t *testing.T) {
	g, bc := line(t, 10, 1)
	sw, _ := physics.NewShallowWater(9.81, 1)
	logger, hook := logtest.NewNullLogger()

	s, err := New(g, sw, bc, Config{Dt: 1, EndTime: 10, AutoAdjust: true}, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	limit := 1 / math.Sqrt(9.81)
	if math.Abs(s.Dt()-limit) > 1e-12 {
		t.Errorf("dt = %g, want %g", s.Dt(), limit)
	}
	if want := int(math.Ceil(10 / limit)); s.Steps() != want {
		t.Errorf("steps = %d, want %d", s.Steps(), want)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning, got %v", entry)
	}
	if entry.Data["requested_dt"] != 1.0 {
		t.Errorf("requested_dt = %v", entry.Data["requested_dt"])
	}
}

func TestZeroStateStaysZero(t *testing.T) {
	g, err := grid.New1D(20, 1)
	if err != nil {
		t.Fatal(err)
	}
	bc, err := boundary.New(g, boundary.Uniform(g, boundary.Fixed(0)))
	if err != nil {
		t.Fatal(err)
	}
	sw, _ := physics.NewShallowWater(9.81, 1)
	wave, _ := physics.NewWave(1)

	for _, rhs := range []RHS{sw, wave} {
		t.Run(rhs.Name(), func(t *testing.T) {
			s, err := New(g, rhs, bc, Config{Dt: 0.1, EndTime: 0.1}, quiet())
			if err != nil {
				t.Fatal(err)
			}
			x0 := dynamo.NewState()
			for _, n := range rhs.Fields(g) {
				x0.Set(n, g.NewField())
			}
			h, err := s.Run(context.Background(), x0)
			if err != nil {
				t.Fatal(err)
			}
			if h.StepsTaken != 1 {
				t.Fatalf("steps = %d, want 1", h.StepsTaken)
			}
			last, _ := h.Last()
			if m := last.MaxAbs(); m != 0 {
				t.Errorf("max |state| after one step = %g, want 0", m)
			}
		})
	}
}

func TestDivergenceKeepsPartialHistory(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, err := New(g, &decay{rate: 1, nanFrom: 0.25}, bc, Config{Dt: 0.1, EndTime: 1, Stride: 2}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	h, err := s.Run(context.Background(), uniform(g, "u", 1))

	var div *dynamo.DivergenceError
	if !errors.As(err, &div) {
		t.Fatalf("err = %v, want DivergenceError", err)
	}
	if div.Step != 4 || div.Field != "u" {
		t.Errorf("divergence at step %d field %q, want step 4 field u", div.Step, div.Field)
	}
	if s.Status() != Failed || h.Status != Failed {
		t.Errorf("status = %s, want failed", s.Status())
	}
	// records at steps 0 and 2, plus the last good step 3
	if h.Len() != 3 || h.StepsTaken != 3 {
		t.Fatalf("records = %d, steps = %d", h.Len(), h.StepsTaken)
	}
	if _, tLast := h.Last(); math.Abs(tLast-0.3) > 1e-12 {
		t.Errorf("last good time = %g, want 0.3", tLast)
	}
	if err := s.Step(); err == nil {
		t.Error("Step after failure should be rejected")
	}
}

func TestCancellationAtStepBoundary(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, err := New(g, &decay{rate: 1}, bc, Config{Dt: 0.1, EndTime: 1}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, err := s.Run(ctx, uniform(g, "u", 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if h.Len() != 1 || h.StepsTaken != 0 {
		t.Errorf("records = %d, steps = %d", h.Len(), h.StepsTaken)
	}
}

func TestStrideKeepsFinalStep(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, err := New(g, &decay{rate: 1}, bc, Config{Dt: 0.1, EndTime: 1, Stride: 3}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	h, err := s.Run(context.Background(), uniform(g, "u", 1))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.3, 0.6, 0.9, 1.0}
	if len(h.Times) != len(want) {
		t.Fatalf("times = %v, want %v", h.Times, want)
	}
	for i := range want {
		if math.Abs(h.Times[i]-want[i]) > 1e-12 {
			t.Errorf("times[%d] = %g, want %g", i, h.Times[i], want[i])
		}
	}
}

type countMetric struct {
	count int
	sum   float64
}

func (m *countMetric) Name() string { return "mean_u" }
func (m *countMetric) Observe(s *dynamo.State, _ float64) {
	m.count++
	m.sum += s.Field("u").Data[0]
}
func (m *countMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *countMetric) Reset() { m.count, m.sum = 0, 0 }

type countObserver struct{ times []float64 }

func (o *countObserver) OnStep(_ *dynamo.State, t float64) { o.times = append(o.times, t) }

func TestSimulatorMetrics(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, err := New(g, &decay{rate: 1}, bc, Config{Dt: 0.1, EndTime: 1}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	metric, obs := &countMetric{}, &countObserver{}
	s.AddMetric(metric)
	s.AddObserver(obs)

	for run := 0; run < 2; run++ {
		result, err := s.Run(context.Background(), uniform(g, "u", 1))
		if err != nil {
			t.Fatalf("run %d failed: %v", run, err)
		}
		if _, ok := result.Metrics["mean_u"]; !ok {
			t.Error("metric not found in result")
		}
		if metric.count != 11 {
			t.Errorf("expected 11 observations, got %d", metric.count)
		}
	}
	if len(obs.times) != 22 {
		t.Errorf("observer calls = %d, want 22", len(obs.times))
	}
}

func TestStepwiseAPI(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, err := New(g, &decay{rate: 1}, bc, Config{Dt: 0.25, EndTime: 1}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err == nil {
		t.Error("Step before Start should fail")
	}
	if err := s.Start(uniform(g, "u", 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(uniform(g, "u", 1)); err == nil {
		t.Error("second Start during a run should fail")
	}
	n := 0
	for !s.Done() {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 4 || s.Time() != 1 {
		t.Errorf("steps = %d, time = %g", n, s.Time())
	}
	if h := s.Finish(); h.Len() != 5 {
		t.Errorf("records = %d, want 5", h.Len())
	}
}

func TestInitialStateValidation(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, err := New(g, &decay{rate: 1}, bc, Config{Dt: 0.1, EndTime: 1}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := s.Run(ctx); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("no state: %v", err)
	}
	if _, err := s.Run(ctx, uniform(g, "u", 0), uniform(g, "u", 0)); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("two states for a first-order kind: %v", err)
	}
	if _, err := s.Run(ctx, dynamo.NewState().Set("u", dynamo.NewField(5, 1))); !errors.Is(err, dynamo.ErrShape) {
		t.Errorf("wrong shape: %v", err)
	}
	if _, err := s.Run(ctx, uniform(g, "eta", 0)); !errors.Is(err, dynamo.ErrShape) {
		t.Errorf("missing field: %v", err)
	}

	wv, _ := physics.NewWave(1)
	lf, err := New(g, wv, bc, Config{Dt: 0.1, EndTime: 1}, quiet())
	if err != nil {
		t.Fatal(err)
	}
	withTracer := uniform(g, "eta", 0).Set("tracer", g.NewField().Fill(1))
	levels := []struct {
		name      string
		prev, cur *dynamo.State
	}{
		{"extra field in current level", uniform(g, "eta", 0), withTracer},
		{"extra field in previous level", withTracer, uniform(g, "eta", 0)},
	}
	for _, tt := range levels {
		t.Run(tt.name, func(t *testing.T) {
			h, err := lf.Run(ctx, tt.prev, tt.cur)
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Fatalf("err = %v, want a configuration error", err)
			}
			if h != nil || lf.Status() != Idle {
				t.Error("mismatched levels must be rejected before stepping")
			}
		})
	}
}

func TestEulerWarnsOnUndampedKind(t *testing.T) {
	g, bc := line(t, 10, 1)
	sw, _ := physics.NewShallowWater(9.81, 1)
	tr, _ := physics.NewTransport(0.1, 0.5, 0)

	tests := []struct {
		name   string
		rhs    RHS
		scheme string
		warn   bool
	}{
		{"default scheme on shallow water", sw, "", true},
		{"explicit euler on shallow water", sw, "euler", true},
		{"rk4 on shallow water", sw, "rk4", false},
		{"euler with diffusion", tr, "", false},
		{"euler without signal speed", &decay{rate: 1}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			if _, err := New(g, tt.rhs, bc, Config{Dt: 0.1, EndTime: 1, Scheme: tt.scheme}, WithLogger(logger)); err != nil {
				t.Fatal(err)
			}
			warned := false
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.WarnLevel && e.Data["scheme"] == "euler" {
					warned = true
				}
			}
			if warned != tt.warn {
				t.Errorf("warned = %v, want %v", warned, tt.warn)
			}
		})
	}
}

func TestHistoryGauge(t *testing.T) {
	g, bc := line(t, 4, 1)
	s, _ := New(g, &decay{rate: 1}, bc, Config{Dt: 0.5, EndTime: 1}, quiet())
	h, err := s.Run(context.Background(), uniform(g, "u", 2))
	if err != nil {
		t.Fatal(err)
	}
	series, err := h.Gauge("u", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 1, 0.5}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("gauge[%d] = %g, want %g", i, series[i], want[i])
		}
	}
	if _, err := h.Gauge("u", 9, 0); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("out of range gauge: %v", err)
	}
	if _, err := h.Gauge("eta", 1, 0); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("unknown field gauge: %v", err)
	}
	if len(h.Series("u")) != 3 || h.Fields()[0] != "u" {
		t.Errorf("series/fields mismatch: %d %v", len(h.Series("u")), h.Fields())
	}
}

func TestEnsemble(t *testing.T) {
	g, bc := line(t, 4, 1)
	build := func(seed int64) (*Simulator, []*dynamo.State, error) {
		s, err := New(g, &decay{rate: 1}, bc, Config{Dt: 0.1, EndTime: 0.5}, quiet())
		return s, []*dynamo.State{uniform(g, "u", float64(seed))}, err
	}
	results, err := NewEnsemble(build, 3, 1).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, h := range results {
		if h.States[0].Field("u").Data[0] != float64(i+1) {
			t.Errorf("run %d started from %g", i, h.States[0].Field("u").Data[0])
		}
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{Idle: "idle", Stepping: "stepping", Failed: "failed"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
