package main

import (
	"context"
	"sync"
)

// Orchestrator runs the configured number of visits on a bounded pool of
// workers. Visit numbers come from a VisitCounter goroutine, so total
// concurrency never exceeds the worker count and closing stop drains the
// batch cleanly. A failing or panicking visit is logged at this boundary and
// never prevents the remaining visits from running.
type Orchestrator struct {
	visits  int64
	workers int
	seed    string
	deps    VisitDeps
	log     Logger
}

func NewOrchestrator(visits int64, workers int, seed string, deps VisitDeps, log Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		visits:  visits,
		workers: workers,
		seed:    seed,
		deps:    deps,
		log:     log,
	}
}

// Run fires all visits and returns when every issued visit has finished.
func (o *Orchestrator) Run(ctx context.Context, stop chan struct{}) {
	counter := make(chan int64)
	go func() {
		VisitCounter(o.log, o.visits, counter, stop)
		close(counter)
	}()

	wg := &sync.WaitGroup{}
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for num := range counter {
				o.runOne(ctx, num)
			}
		}()
	}
	wg.Wait()
}

// runOne executes a single visit, isolating its failures. Each visit gets an
// Rng derived from the run seed and its visit number, so a seeded run
// produces the same traffic regardless of worker scheduling.
func (o *Orchestrator) runOne(ctx context.Context, num int64) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("visit %d panicked: %v\n", num, r)
		}
	}()

	visit := NewVisit(DeriveRng(o.seed, num), o.deps)
	if err := visit.Run(ctx); err != nil {
		o.log.Error("visit %d failed: %v\n", num, err)
		return
	}
	o.log.Debug("visit %d finished\n", num)
}
