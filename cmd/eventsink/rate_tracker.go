package main

import (
	"log"
	"sync"
	"time"
)

// EventRateTracker tracks events received per second
type EventRateTracker struct {
	mu             sync.RWMutex
	eventCounts    map[int64]int // Map of timestamp (seconds) to event count
	startTime      time.Time     // When tracking started
	totalEvents    int           // Total events counted by the tracker
	lastReportTime time.Time     // Last time stats were reported
	reportInterval time.Duration // How often to report stats
}

// NewEventRateTracker creates a new rate tracker
func NewEventRateTracker() *EventRateTracker {
	return &EventRateTracker{
		eventCounts:    make(map[int64]int),
		startTime:      time.Now(),
		lastReportTime: time.Now(),
		reportInterval: 5 * time.Second,
	}
}

// TrackEvents adds event count to the current second
func (t *EventRateTracker) TrackEvents(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Use Unix timestamp as the key (second precision)
	now := time.Now()
	key := now.Unix()

	t.eventCounts[key] += count
	t.totalEvents += count

	// Report periodically
	if now.Sub(t.lastReportTime) >= t.reportInterval {
		t.reportStats()
		t.lastReportTime = now
	}
}

// GetCurrentRate returns the average events/second over the last n seconds
func (t *EventRateTracker) GetCurrentRate(seconds int) float64 {
	now := time.Now()
	cutoff := now.Add(-time.Duration(seconds) * time.Second).Unix()

	var total int
	for ts, count := range t.eventCounts {
		if ts >= cutoff {
			total += count
		}
	}

	// If we have less than n seconds of data, use what we have
	actualSeconds := int64(seconds)
	elapsedSeconds := now.Unix() - t.startTime.Unix()
	if elapsedSeconds < int64(seconds) {
		actualSeconds = elapsedSeconds
		if actualSeconds == 0 {
			actualSeconds = 1 // Avoid division by zero
		}
	}

	return float64(total) / float64(actualSeconds)
}

// reportStats logs the current rate statistics
func (t *EventRateTracker) reportStats() {
	rate1s := t.GetCurrentRate(1)
	rate10s := t.GetCurrentRate(10)
	rate60s := t.GetCurrentRate(60)

	log.Printf("Events per second: %.2f (1s) | %.2f (10s) | %.2f (60s) | Total: %d",
		rate1s, rate10s, rate60s, t.totalEvents)
}
