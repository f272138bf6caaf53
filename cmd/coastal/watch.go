package main

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/coastal/internal/config"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/experiment"
	"github.com/san-kum/coastal/internal/sim"
	"github.com/san-kum/coastal/internal/viz"
)

// quiet keeps run logging off the terminal while the live view owns it.
func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// launcher rebuilds the run for every start of the live view. The seed is
// fixed so a restart replays the same sea.
func launcher(cfg *config.Config) viz.Launcher {
	return func() (*sim.Simulator, *dynamo.State, error) {
		e, err := experiment.Build(cfg, cfg.Seed, quiet())
		if err != nil {
			return nil, nil, err
		}
		return e.GetSimulator(), e.Initial(), nil
	}
}

func liveModel(cfg *config.Config) (viz.Model, error) {
	return viz.NewModel(cfg.Name, cfg.Output.Field, cfg.Output.Gauge, launcher(cfg))
}

func (c *cli) watch(cmd *cobra.Command, args []string) error {
	doc, err := c.document(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := doc.Resolve()
	if err != nil {
		return err
	}
	m, err := liveModel(cfg)
	if err != nil {
		return err
	}
	return viz.Run(m)
}

// presetChoices lists every preset with the settings the picker may edit.
func presetChoices() []viz.Choice {
	var choices []viz.Choice
	for _, kind := range config.Kinds() {
		for _, name := range config.ListPresets(kind) {
			doc := config.GetPreset(kind, name)
			choices = append(choices, viz.Choice{
				Name:        name,
				Kind:        kind,
				Description: presetInfo[name],
				Params: []viz.Param{
					{Name: "dt", Value: *doc.Solver.Dt, Step: *doc.Solver.Dt / 10},
					{Name: "duration", Value: *doc.Solver.Duration, Step: 10},
					{Name: "amplitude", Value: doc.Initial.Amplitude, Step: doc.Initial.Amplitude / 10},
				},
			})
		}
	}
	return choices
}

// openChoice applies the edited settings to a copy of the preset.
func (c *cli) openChoice(ch viz.Choice, params map[string]float64) (viz.Model, error) {
	preset := config.GetPreset(ch.Kind, ch.Name)
	if preset == nil {
		return viz.Model{}, dynamo.Configf("preset", "unknown preset %s", ch.Name)
	}
	doc := *preset
	dt, duration := params["dt"], params["duration"]
	doc.Solver.Dt, doc.Solver.Duration = &dt, &duration
	doc.Initial.Amplitude = params["amplitude"]
	if doc.Seed == nil {
		seed := c.seed
		doc.Seed = &seed
	}

	cfg, err := doc.Resolve()
	if err != nil {
		return viz.Model{}, err
	}
	return liveModel(cfg)
}
