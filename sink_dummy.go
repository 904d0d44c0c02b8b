package main

import (
	"context"
	"sync/atomic"
)

// DummySink counts events and discards them. It exists so the simulator can
// be run at full speed with no destination at all, e.g. to exercise the
// registry under load.
type DummySink struct {
	events   atomic.Int64
	profiles atomic.Int64
	log      Logger
}

var _ Sink = (*DummySink)(nil)

func NewDummySink(log Logger) *DummySink {
	return &DummySink{log: log}
}

func (d *DummySink) Track(ctx context.Context, shopperID, event string, props map[string]any) error {
	d.events.Add(1)
	return nil
}

func (d *DummySink) SetProfile(ctx context.Context, shopperID string, props map[string]any) error {
	d.profiles.Add(1)
	return nil
}

func (d *DummySink) Close() {
	d.log.Info("sink swallowed %d events and %d profiles\n", d.events.Load(), d.profiles.Load())
}
