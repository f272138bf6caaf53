package sim

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/integrators"
)

// Simulator is the time integrator. It owns the history of a run until the
// run completes or fails, and is not safe for concurrent use.
type Simulator struct {
	g         *grid.Grid
	rhs       RHS
	bc        Boundary
	cfg       Config
	stepper   integrators.Stepper
	leapfrog  *integrators.Leapfrog
	log       logrus.FieldLogger
	metrics   []Metric
	observers []Observer

	dt     float64
	steps  int
	status Status

	prev, cur *dynamo.State
	step      int
	recorded  int
	hist      *History
}

type Option func(*Simulator)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithStepper overrides the configured first-order scheme.
func WithStepper(st integrators.Stepper) Option {
	return func(s *Simulator) { s.stepper = st }
}

// New validates the configuration and the time step against the stability
// bound. A step above the bound is a StabilityError unless AutoAdjust is
// set, in which case it is clamped.
func New(g *grid.Grid, rhs RHS, bc Boundary, cfg Config, opts ...Option) (*Simulator, error) {
	if g == nil || rhs == nil || bc == nil {
		return nil, dynamo.Configf("solver", "grid, physics and boundary are required")
	}
	s := &Simulator{
		g:         g,
		rhs:       rhs,
		bc:        bc,
		log:       logrus.StandardLogger(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.configure(cfg); err != nil {
		return nil, err
	}
	s.warnUndamped()
	if err := s.checkStability(nil); err != nil {
		return nil, err
	}
	return s, nil
}

// warnUndamped flags forward Euler on a purely hyperbolic kind. With
// central differences that pairing amplifies every mode regardless of dt,
// while the values stay finite long enough to escape the divergence check.
func (s *Simulator) warnUndamped() {
	if s.stepper == nil || s.stepper.Name() != "euler" {
		return
	}
	speed := s.rhs.CharacteristicSpeed(nil)
	if speed <= 0 {
		return
	}
	if d, ok := s.rhs.(Diffusive); ok && d.Diffusivity() > 0 {
		return
	}
	s.log.WithFields(logrus.Fields{
		"physics": s.rhs.Name(),
		"scheme":  "euler",
		"speed":   speed,
	}).Warn("forward euler is unstable for undamped wave propagation, use rk4")
}

func (s *Simulator) configure(cfg Config) error {
	if !(cfg.Dt > 0) {
		return dynamo.Configf("solver.dt", "must be positive, got %g", cfg.Dt)
	}
	if !(cfg.EndTime > 0) {
		return dynamo.Configf("solver.duration", "must be positive, got %g", cfg.EndTime)
	}
	if cfg.CFL == 0 {
		cfg.CFL = 1
	}
	if !(cfg.CFL > 0) {
		return dynamo.Configf("solver.cfl_target", "must be positive, got %g", cfg.CFL)
	}
	if cfg.Stride == 0 {
		cfg.Stride = 1
	}
	if cfg.Stride < 0 {
		return dynamo.Configf("output.stride", "must be positive, got %d", cfg.Stride)
	}

	switch s.rhs.HistoryDepth() {
	case 1:
		if cfg.Scheme == "leapfrog" {
			return dynamo.Configf("solver.scheme", "leapfrog needs a second-order system, %s is first order", s.rhs.Name())
		}
		if s.stepper == nil {
			st, err := integrators.Lookup(cfg.Scheme)
			if err != nil {
				return err
			}
			s.stepper = st
		}
	case 2:
		if cfg.Scheme != "" && cfg.Scheme != "leapfrog" {
			return dynamo.Configf("solver.scheme", "%s is second order and needs leapfrog, got %q", s.rhs.Name(), cfg.Scheme)
		}
		cfg.Scheme = "leapfrog"
		s.leapfrog = integrators.NewLeapfrog()
	default:
		return dynamo.Configf("physics", "unsupported history depth %d", s.rhs.HistoryDepth())
	}
	if cfg.Scheme == "" {
		cfg.Scheme = s.stepper.Name()
	}

	s.cfg = cfg
	s.setDt(cfg.Dt)
	return nil
}

func (s *Simulator) setDt(dt float64) {
	s.dt = dt
	s.steps = int(math.Ceil(s.cfg.EndTime/dt - 1e-9))
}

// Bound returns the largest stable step for state st (nil for the
// parameter-only bound) and the signal speed it was derived from.
func (s *Simulator) Bound(st *dynamo.State) (bound, speed float64) {
	bound = math.Inf(1)
	speed = s.rhs.CharacteristicSpeed(st)
	if speed > 0 {
		bound = s.cfg.CFL * s.g.MinSpacing() / speed
	}
	if d, ok := s.rhs.(Diffusive); ok && d.Diffusivity() > 0 {
		h := s.g.MinSpacing()
		bound = math.Min(bound, s.cfg.CFL*h*h/(2*float64(s.g.Dims())*d.Diffusivity()))
	}
	return bound, speed
}

func (s *Simulator) checkStability(st *dynamo.State) error {
	bound, speed := s.Bound(st)
	if s.dt <= bound {
		return nil
	}
	if !s.cfg.AutoAdjust {
		return &dynamo.StabilityError{Dt: s.dt, Bound: bound, Speed: speed}
	}
	s.log.WithFields(logrus.Fields{
		"requested_dt": s.dt,
		"dt":           bound,
		"bound":        bound,
		"speed":        speed,
	}).Warn("time step exceeds stability bound, clamping")
	s.setDt(bound)
	return nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Status() Status   { return s.status }
func (s *Simulator) Dt() float64      { return s.dt }
func (s *Simulator) Steps() int       { return s.steps }
func (s *Simulator) Grid() *grid.Grid { return s.g }
func (s *Simulator) RHS() RHS         { return s.rhs }
func (s *Simulator) Config() Config   { return s.cfg }

// Time is the simulation time of the current state.
func (s *Simulator) Time() float64 { return float64(s.step) * s.dt }

// Current returns the latest state of an active or finished run.
func (s *Simulator) Current() *dynamo.State { return s.cur }

// Run integrates from the initial states to the end time. initial holds
// one state, or for second-order kinds optionally the two most recent
// levels oldest first. Cancellation is honoured between steps only. On
// failure the history up to the last good step is returned with the error.
func (s *Simulator) Run(ctx context.Context, initial ...*dynamo.State) (*History, error) {
	if err := s.Start(initial...); err != nil {
		return nil, err
	}
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			s.fail(err)
			return s.Finish(), err
		}
		if err := s.Step(); err != nil {
			return s.Finish(), err
		}
	}
	return s.Finish(), nil
}

// Start validates the initial states and enters the Stepping state.
func (s *Simulator) Start(initial ...*dynamo.State) error {
	if s.status == Stepping {
		return dynamo.Configf("solver", "a run is already in progress")
	}
	depth := s.rhs.HistoryDepth()
	if len(initial) == 0 || len(initial) > depth {
		return dynamo.Configf("initial", "%s takes 1 to %d initial states, got %d", s.rhs.Name(), depth, len(initial))
	}
	for _, st := range initial {
		if st == nil {
			return dynamo.Configf("initial", "nil state")
		}
		if err := s.g.CheckState(st, s.rhs.Fields(s.g)...); err != nil {
			return err
		}
		if err := s.g.CheckState(st, st.Names()...); err != nil {
			return err
		}
	}
	if len(initial) == 2 && !slices.Equal(initial[0].Names(), initial[1].Names()) {
		return dynamo.Configf("initial", "time levels carry different fields: %v and %v",
			initial[0].Names(), initial[1].Names())
	}

	cur, err := s.bc.Apply(initial[len(initial)-1], 0)
	if err != nil {
		return err
	}
	if err := s.checkStability(cur); err != nil {
		return err
	}
	s.prev = nil
	if len(initial) == 2 {
		s.prev = initial[0].Clone()
	}
	s.cur = cur
	s.step = 0
	s.recorded = 0

	s.hist = &History{
		Grid:    s.g,
		Config:  s.cfg,
		Dt:      s.dt,
		Times:   make([]float64, 0, s.steps/s.cfg.Stride+2),
		States:  make([]*dynamo.State, 0, s.steps/s.cfg.Stride+2),
		Metrics: make(map[string]float64),
	}
	s.hist.append(0, cur.Clone())

	for _, m := range s.metrics {
		m.Reset()
	}
	s.notify(cur, 0)

	s.status = Stepping
	s.log.WithFields(logrus.Fields{
		"physics": s.rhs.Name(),
		"scheme":  s.cfg.Scheme,
		"dt":      s.dt,
		"steps":   s.steps,
		"grid":    s.g.String(),
	}).Info("run started")
	return nil
}

// Done reports whether no further Step is possible.
func (s *Simulator) Done() bool { return s.status != Stepping }

// Step advances one time step.
func (s *Simulator) Step() error {
	if s.status != Stepping {
		return dynamo.Configf("solver", "no run in progress (status %s)", s.status)
	}
	t := s.Time()
	f := func(st *dynamo.State, tt float64) (*dynamo.State, error) {
		return s.rhs.Evaluate(st, s.g, tt)
	}

	var next *dynamo.State
	var err error
	switch {
	case s.leapfrog == nil:
		next, err = s.stepper.Step(f, s.bc.Apply, s.cur, t, s.dt)
	case s.prev == nil:
		next, err = s.leapfrog.Start(f, s.bc.Apply, s.cur, nil, t, s.dt)
	default:
		next, err = s.leapfrog.Step(f, s.bc.Apply, s.prev, s.cur, t, s.dt)
	}
	if err != nil {
		err = fmt.Errorf("step %d: %w", s.step+1, err)
		s.fail(err)
		return err
	}
	if name, ok := next.CheckFinite(); !ok {
		err := &dynamo.DivergenceError{Step: s.step + 1, Time: t + s.dt, Field: name}
		s.fail(err)
		return err
	}

	s.prev, s.cur = s.cur, next
	s.step++
	now := s.Time()
	if s.step%s.cfg.Stride == 0 || s.step == s.steps {
		s.hist.append(now, next.Clone())
		s.recorded = s.step
	}
	s.notify(next, now)

	if s.step >= s.steps {
		s.status = Idle
		s.log.WithFields(logrus.Fields{
			"steps":  s.step,
			"time":   now,
			"status": s.status,
		}).Info("run finished")
	}
	return nil
}

func (s *Simulator) notify(st *dynamo.State, t float64) {
	for _, m := range s.metrics {
		m.Observe(st, t)
	}
	for _, o := range s.observers {
		o.OnStep(st, t)
	}
}

// fail keeps the last good state in the history and moves to Failed.
func (s *Simulator) fail(err error) {
	if s.hist != nil && s.recorded != s.step {
		s.hist.append(s.Time(), s.cur.Clone())
		s.recorded = s.step
	}
	s.status = Failed
	s.log.WithFields(logrus.Fields{
		"step": s.step,
		"time": s.Time(),
	}).WithError(err).Error("run failed")
}

// Finish returns the history of the current or last run with metric
// values filled in.
func (s *Simulator) Finish() *History {
	if s.hist == nil {
		return nil
	}
	s.hist.StepsTaken = s.step
	s.hist.Status = s.status
	for _, m := range s.metrics {
		s.hist.Metrics[m.Name()] = m.Value()
	}
	return s.hist
}
