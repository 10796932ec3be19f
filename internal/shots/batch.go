package shots

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BatchItem is the outcome of one request in a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int     `json:"index"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	Err    error   `json:"-"`
}

// BatchRunner simulates independent shots on a bounded number of goroutines.
// Shots share nothing but their read-only tables, so results do not depend on
// the worker count.
type BatchRunner struct {
	manager *Manager
	workers int
}

func NewBatchRunner(m *Manager, workers int) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{manager: m, workers: workers}
}

// Run returns one item per request, in request order. Requests still queued
// when ctx is cancelled fail with the context error.
func (b *BatchRunner) Run(ctx context.Context, reqs []ShotRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))
	sem := make(chan struct{}, b.workers)
	var wg sync.WaitGroup

	start := time.Now()
	for i := range reqs {
		items[i].Index = i
		select {
		case <-ctx.Done():
			items[i].fail(ctx.Err())
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				items[idx].fail(err)
				return
			}
			setup, err := reqs[idx].Resolve()
			if err != nil {
				items[idx].fail(err)
				return
			}
			r, err := b.manager.SimulateSetup(setup)
			if err != nil {
				items[idx].fail(err)
				return
			}
			items[idx].Result = r
		}(i)
	}
	wg.Wait()

	b.manager.log.WithFields(logrus.Fields{
		"shots":   len(reqs),
		"workers": b.workers,
		"elapsed": time.Since(start),
	}).Debug("[SIM] batch finished")
	return items
}

func (it *BatchItem) fail(err error) {
	it.Err = err
	it.Error = err.Error()
}
