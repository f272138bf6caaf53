package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/coastal/internal/optim"
)

// parseSweep reads "key=v1,v2,..." settings.
func parseSweep(specs []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, spec := range specs {
		key, list, ok := strings.Cut(spec, "=")
		if !ok || key == "" || list == "" {
			return nil, nil, fmt.Errorf("bad --param %q, want key=v1,v2,...", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", key, err)
			}
			values = append(values, v)
		}
		names = append(names, key)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func (c *cli) sweep(cmd *cobra.Command, args []string, specs []string, metric string) error {
	names, ranges, err := parseSweep(specs)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges, c.log)
	if err != nil {
		return fmt.Errorf("%w (sweepable: %s)", err, strings.Join(optim.Params(), ", "))
	}
	doc, err := c.document(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, searchErr := gs.Search(ctx, doc, *doc.Seed, metric)
	if len(res.Trials) == 0 {
		return searchErr
	}

	keys := append([]string(nil), names...)
	sort.Strings(keys)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(keys, "\t")), strings.ToUpper(metric))
	for _, tr := range res.Trials {
		for _, k := range keys {
			fmt.Fprintf(w, "%g\t", tr.Params[k])
		}
		if tr.Err != nil {
			fmt.Fprintf(w, "failed: %v\n", tr.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\n", tr.Metrics[metric])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if searchErr != nil {
		return searchErr
	}

	best := make([]string, len(keys))
	for i, k := range keys {
		best[i] = fmt.Sprintf("%s=%g", k, res.Best[k])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s %s (%s %.6g)\n", labelStyle.Render("best:"), strings.Join(best, " "), metric, res.BestValue)
	return nil
}
