package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorRunsEveryVisit(t *testing.T) {
	const visits = 200
	sink := newCaptureSink()
	deps := testDeps(sink, &stubProfiles{})
	deps.Progress = 100
	deps.Returning = 0

	stop := make(chan struct{})
	orch := NewOrchestrator(visits, 8, "batch", deps, NewLogger(0))
	orch.Run(context.Background(), stop)

	// every visit progressed straight through, so each emitted exactly one
	// main page event and registered exactly once
	assert.Equal(t, visits, sink.countNamed(EventMainPage))
	assert.Equal(t, visits, sink.countNamed(EventCheckout))
	assert.Equal(t, visits, deps.Registry.Len())
}

func TestOrchestratorIsolatesPanickingVisits(t *testing.T) {
	sink := newCaptureSink()
	deps := testDeps(sink, &stubProfiles{})
	deps.Progress = 100
	deps.Returning = 0
	deps.Catalog = nil // choosing an item from an empty catalog panics

	stop := make(chan struct{})
	orch := NewOrchestrator(20, 4, "boom", deps, NewLogger(0))
	require.NotPanics(t, func() {
		orch.Run(context.Background(), stop)
	})

	// every visit still got as far as the main page before blowing up
	assert.Equal(t, 20, sink.countNamed(EventMainPage))
}

func TestOrchestratorSeededRunsAreReproducible(t *testing.T) {
	run := func() []string {
		sink := newCaptureSink()
		deps := testDeps(sink, &stubProfiles{})
		orch := NewOrchestrator(50, 1, "replay", deps, NewLogger(0))
		orch.Run(context.Background(), make(chan struct{}))
		return sink.eventNames()
	}

	assert.Equal(t, run(), run(), "same seed and single worker must replay the same traffic")
}

func TestVisitCounterStopsAtMax(t *testing.T) {
	output := make(chan int64)
	stop := make(chan struct{})
	done := make(chan bool)

	go func() {
		done <- VisitCounter(NewLogger(0), 5, output, stop)
	}()

	var got []int64
	for n := range output {
		got = append(got, n)
		if len(got) == 5 {
			break
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
	assert.False(t, <-done, "counter exhausted its budget rather than being stopped")
}

func TestVisitCounterStopsOnSignal(t *testing.T) {
	output := make(chan int64)
	stop := make(chan struct{})
	done := make(chan bool)

	go func() {
		done <- VisitCounter(NewLogger(0), 0, output, stop)
	}()

	<-output
	<-output
	close(stop)
	assert.True(t, <-done)
}
