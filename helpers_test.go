package main

import (
	"context"
	"errors"
	"sync"
	"time"
)

// captureSink records everything it is asked to send, for assertions.
type capturedEvent struct {
	ShopperID string
	Name      string
	Props     map[string]any
}

type captureSink struct {
	mu       sync.Mutex
	events   []capturedEvent
	profiles map[string]map[string]any
	closed   bool
}

func newCaptureSink() *captureSink {
	return &captureSink{profiles: make(map[string]map[string]any)}
}

func (c *captureSink) Track(ctx context.Context, shopperID, event string, props map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make(map[string]any, len(props))
	for k, v := range props {
		copied[k] = v
	}
	c.events = append(c.events, capturedEvent{ShopperID: shopperID, Name: event, Props: copied})
	return nil
}

func (c *captureSink) SetProfile(ctx context.Context, shopperID string, props map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[shopperID] = props
	return nil
}

func (c *captureSink) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *captureSink) eventNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.events))
	for i, ev := range c.events {
		names[i] = ev.Name
	}
	return names
}

func (c *captureSink) countNamed(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

// failingSink always errors, to prove reporting failures never propagate.
type failingSink struct{}

func (failingSink) Track(ctx context.Context, shopperID, event string, props map[string]any) error {
	return errors.New("sink is down")
}

func (failingSink) SetProfile(ctx context.Context, shopperID string, props map[string]any) error {
	return errors.New("sink is down")
}

func (failingSink) Close() {}

// stubProfiles serves canned profiles without the network.
type stubProfiles struct {
	mu      sync.Mutex
	err     error
	fetches int
}

func (s *stubProfiles) FetchProfile(ctx context.Context) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return &Profile{
		Name:        "Alex Mercer",
		DateOfBirth: time.Date(1980, time.April, 12, 0, 0, 0, 0, time.UTC),
		City:        "Springfield",
		Postcode:    "12345",
		Gender:      "male",
		Age:         46,
		Email:       "alex.mercer@example.com",
	}, nil
}

func (s *stubProfiles) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func testDeps(sink Sink, profiles ProfileFetcher) VisitDeps {
	log := NewLogger(0)
	return VisitDeps{
		Reporter:  NewReporter(log, []Sink{sink}, nil),
		Registry:  NewRegistry(),
		Profiles:  profiles,
		Catalog:   []string{"teapot"},
		Progress:  70,
		Returning: 50,
		Log:       log,
	}
}
