package sim

import (
	"context"

	"github.com/san-kum/coastal/internal/dynamo"
)

// Factory assembles an independent simulator and its initial states for
// one seed.
type Factory func(seed int64) (*Simulator, []*dynamo.State, error)

// Ensemble runs independent realisations, e.g. different forcing phase
// seeds, on at most GOMAXPROCS goroutines. Each run is still stepped
// sequentially.
type Ensemble struct {
	build     Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one history per seed, in seed order, and the first error.
func (e *Ensemble) Run(ctx context.Context) ([]*History, error) {
	results := make([]*History, e.numRuns)
	errs := make([]error, e.numRuns)

	dynamo.ParallelFor(e.numRuns, 1, func(start, end int) {
		for idx := start; idx < end; idx++ {
			s, x0, err := e.build(e.seedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				continue
			}
			results[idx], errs[idx] = s.Run(ctx, x0...)
		}
	})

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
