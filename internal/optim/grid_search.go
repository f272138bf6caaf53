// Package optim sweeps numeric run settings over a grid of values and
// picks the combination that minimises a run metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/coastal/internal/config"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/experiment"
)

// setter applies one value of a swept setting to a document.
type setter func(doc *config.Document, v float64) error

func ptr(v float64) *float64 { return &v }

func forcing(doc *config.Document, key string, set func(f *config.ForcingDoc)) error {
	if doc.Forcing == nil {
		return dynamo.Configf(key, "document has no forcing group")
	}
	f := *doc.Forcing
	set(&f)
	doc.Forcing = &f
	return nil
}

var setters = map[string]setter{
	"physics.gravity":     func(d *config.Document, v float64) error { d.Physics.Gravity = ptr(v); return nil },
	"physics.depth":       func(d *config.Document, v float64) error { d.Physics.Depth = ptr(v); return nil },
	"physics.celerity":    func(d *config.Document, v float64) error { d.Physics.Celerity = ptr(v); return nil },
	"physics.viscosity":   func(d *config.Document, v float64) error { d.Physics.Viscosity = ptr(v); return nil },
	"physics.diffusivity": func(d *config.Document, v float64) error { d.Physics.Diffusivity = ptr(v); return nil },
	"physics.drag":        func(d *config.Document, v float64) error { d.Physics.Drag = v; return nil },
	"solver.dt":           func(d *config.Document, v float64) error { d.Solver.Dt = ptr(v); return nil },
	"solver.duration":     func(d *config.Document, v float64) error { d.Solver.Duration = ptr(v); return nil },
	"solver.cfl_target":   func(d *config.Document, v float64) error { d.Solver.CFLTarget = ptr(v); return nil },
	"initial.amplitude":   func(d *config.Document, v float64) error { d.Initial.Amplitude = v; return nil },
	"initial.sigma":       func(d *config.Document, v float64) error { d.Initial.Sigma = v; return nil },
	"forcing.Hs": func(d *config.Document, v float64) error {
		return forcing(d, "forcing.Hs", func(f *config.ForcingDoc) { f.Hs = ptr(v) })
	},
	"forcing.Tp": func(d *config.Document, v float64) error {
		return forcing(d, "forcing.Tp", func(f *config.ForcingDoc) { f.Tp = ptr(v) })
	},
	"forcing.gamma": func(d *config.Document, v float64) error {
		return forcing(d, "forcing.gamma", func(f *config.ForcingDoc) { f.Gamma = ptr(v) })
	},
}

// Params lists the settings a search may sweep, as dotted document keys.
func Params() []string {
	names := make([]string, 0, len(setters))
	for k := range setters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of doc with the given settings changed. doc itself
// is left untouched.
func Apply(doc *config.Document, params map[string]float64) (*config.Document, error) {
	out := *doc
	for _, name := range sortedKeys(params) {
		set, ok := setters[name]
		if !ok {
			return nil, dynamo.Configf(name, "setting cannot be swept")
		}
		if err := set(&out, params[name]); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Trial is one evaluated combination. Err is set when the run could not be
// built or did not finish; Metrics then holds whatever was recorded.
type Trial struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

type Result struct {
	Trials    []Trial
	Best      map[string]float64
	BestValue float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	log        logrus.FieldLogger
}

// NewGridSearch sweeps every combination of ranges, paramNames[k] taking
// the values of ranges[k].
func NewGridSearch(params []string, ranges [][]float64, logger logrus.FieldLogger) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d settings for %d ranges", len(params), len(ranges))
	}
	for k, name := range params {
		if _, ok := setters[name]; !ok {
			return nil, dynamo.Configf(name, "setting cannot be swept")
		}
		if len(ranges[k]) == 0 {
			return nil, dynamo.Configf(name, "no values to sweep")
		}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GridSearch{paramNames: params, ranges: ranges, log: logger}, nil
}

// Search runs base once per combination with the same seed and returns
// the combination with the smallest value of metric. Failed trials are
// kept in the result but never win. Cancelling ctx stops the search.
func (g *GridSearch) Search(ctx context.Context, base *config.Document, seed int64, metric string) (*Result, error) {
	res := &Result{BestValue: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, base, seed, metric, res); err != nil {
		return res, err
	}
	if res.Best == nil {
		return res, fmt.Errorf("grid search: no trial produced %q", metric)
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Document,
	seed int64,
	metric string,
	res *Result,
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		trial := g.evaluate(ctx, base, seed, current)
		if trial.Err == nil {
			if val, ok := trial.Metrics[metric]; !ok {
				trial.Err = fmt.Errorf("run did not record %q", metric)
			} else if val < res.BestValue {
				res.BestValue = val
				res.Best = trial.Params
			}
		}
		g.log.WithFields(logrus.Fields{
			"params": trial.Params,
			metric:   trial.Metrics[metric],
		}).WithError(trial.Err).Debug("trial finished")
		res.Trials = append(res.Trials, trial)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, seed, metric, res); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Document, seed int64, params map[string]float64) Trial {
	trial := Trial{Params: params}
	doc, err := Apply(base, params)
	if err != nil {
		trial.Err = err
		return trial
	}
	cfg, err := doc.Resolve()
	if err != nil {
		trial.Err = err
		return trial
	}
	e, err := experiment.Build(cfg, seed, g.log)
	if err != nil {
		trial.Err = err
		return trial
	}
	hist, err := e.Run(ctx)
	if hist != nil {
		trial.Metrics = hist.Metrics
	}
	trial.Err = err
	return trial
}
