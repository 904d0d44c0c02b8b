package main

import (
	"context"
	"sync/atomic"
)

// A Sink is one configured analytics destination. Implementations may block
// on the network; they must not retain the property maps they are given.
type Sink interface {
	// Track records one event for one shopper.
	Track(ctx context.Context, shopperID, event string, props map[string]any) error
	// SetProfile registers persistent profile properties for a shopper.
	SetProfile(ctx context.Context, shopperID string, props map[string]any) error
	// Close flushes and releases the destination.
	Close()
}

// Reporter fans events out to every configured sink. With zero sinks every
// call is a no-op. Sink failures are logged and counted, never returned: a
// reporting hiccup must not abort a visit.
type Reporter struct {
	sinks  []Sink
	extra  map[string]string // constant properties stamped on every event
	log    Logger
	failed atomic.Int64
}

func NewReporter(log Logger, sinks []Sink, extra map[string]string) *Reporter {
	return &Reporter{sinks: sinks, extra: extra, log: log}
}

// Track sends the named event for the shopper to every sink, carrying the
// shopper's properties plus any extras for this event.
func (r *Reporter) Track(ctx context.Context, shopper *Shopper, event string, extra map[string]any) {
	if len(r.sinks) == 0 {
		return
	}
	props := shopper.Properties()
	for k, v := range r.extra {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	for _, sink := range r.sinks {
		if err := sink.Track(ctx, shopper.ID, event, props); err != nil {
			r.failed.Add(1)
			r.log.Warn("dropping %q event for %s: %v\n", event, shopper.ID, err)
		}
	}
}

// SetProfile pushes the shopper's full property set to every sink's profile
// store. Called once per shopper, at registration.
func (r *Reporter) SetProfile(ctx context.Context, shopper *Shopper) {
	props := shopper.Properties()
	for _, sink := range r.sinks {
		if err := sink.SetProfile(ctx, shopper.ID, props); err != nil {
			r.failed.Add(1)
			r.log.Warn("dropping profile for %s: %v\n", shopper.ID, err)
		}
	}
}

// Failed returns how many sink dispatches have failed so far.
func (r *Reporter) Failed() int64 {
	return r.failed.Load()
}

func (r *Reporter) Close() {
	for _, sink := range r.sinks {
		sink.Close()
	}
	if n := r.failed.Load(); n > 0 {
		r.log.Warn("%d event dispatches failed during the run\n", n)
	}
}
