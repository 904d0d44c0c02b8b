package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// PrintSink writes each event as a human-readable line on stdout. Useful for
// eyeballing the traffic a configuration produces before pointing it at a
// real destination.
type PrintSink struct {
	events   atomic.Int64
	profiles atomic.Int64
	log      Logger
}

var _ Sink = (*PrintSink)(nil)

func NewPrintSink(log Logger) *PrintSink {
	return &PrintSink{log: log}
}

func ft(ts time.Time) string {
	return ts.Format("15:04:05.000")
}

func (p *PrintSink) Track(ctx context.Context, shopperID, event string, props map[string]any) error {
	p.events.Add(1)
	fmt.Printf("%s track %8.8s %-12s %v\n", ft(time.Now()), shopperID, event, props)
	return nil
}

func (p *PrintSink) SetProfile(ctx context.Context, shopperID string, props map[string]any) error {
	p.profiles.Add(1)
	fmt.Printf("%s set   %8.8s %v\n", ft(time.Now()), shopperID, props)
	return nil
}

func (p *PrintSink) Close() {
	p.log.Warn("sink printed %d events and %d profiles\n", p.events.Load(), p.profiles.Load())
}
