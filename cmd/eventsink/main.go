package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	cuckoo "github.com/panmari/cuckoofilter"
)

// Options defines the command line arguments
type Options struct {
	Port int `long:"port" description:"Port number to listen on for HTTP" default:"8080"`
}

// trackPayload is the Mixpanel-style body shopgen posts to /track.
type trackPayload struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

// engagePayload is the profile-update body posted to /engage.
type engagePayload struct {
	DistinctID string         `json:"$distinct_id"`
	Set        map[string]any `json:"$set"`
}

// EventServer receives simulated analytics traffic and keeps counts: events
// per name, profile updates, and an approximate count of distinct shoppers
// seen (cuckoo filter, so very cheap even for long runs).
type EventServer struct {
	mu       sync.Mutex
	events   map[string]int
	profiles int
	shoppers *cuckoo.Filter
	tracker  *EventRateTracker
}

func NewEventServer() *EventServer {
	return &EventServer{
		events:   make(map[string]int),
		shoppers: cuckoo.NewFilter(1000000),
		tracker:  NewEventRateTracker(),
	}
}

func (s *EventServer) recordEvent(p *trackPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[p.Event]++
	if id, ok := p.Properties["distinct_id"].(string); ok && !s.shoppers.Lookup([]byte(id)) {
		s.shoppers.Insert([]byte(id))
	}
	s.tracker.TrackEvents(1)
}

func (s *EventServer) recordProfile(p *engagePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles++
	if p.DistinctID != "" && !s.shoppers.Lookup([]byte(p.DistinctID)) {
		s.shoppers.Insert([]byte(p.DistinctID))
	}
}

func (s *EventServer) summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.events))
	total := 0
	for name, n := range s.events {
		names = append(names, name)
		total += n
	}
	sort.Strings(names)
	out := fmt.Sprintf("%d events, %d profile updates, ~%d distinct shoppers\n", total, s.profiles, s.shoppers.Count())
	for _, name := range names {
		out += fmt.Sprintf("  %-12s %d\n", name, s.events[name])
	}
	return out
}

// decodeData pulls the base64-encoded JSON out of the "data" form field the
// ingestion protocol uses.
func decodeData(r *http.Request, into any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	data := r.FormValue("data")
	if data == "" {
		return fmt.Errorf("missing data field")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}

func initHTTPReceiver(ctx context.Context, opts Options, s *EventServer) {
	mux := http.NewServeMux()

	mux.HandleFunc("/track", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload trackPayload
		if err := decodeData(r, &payload); err != nil {
			http.Error(w, "Invalid track payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.recordEvent(&payload)
		w.Write([]byte("1"))
	})

	mux.HandleFunc("/engage", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload engagePayload
		if err := decodeData(r, &payload); err != nil {
			http.Error(w, "Invalid engage payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.recordProfile(&payload)
		w.Write([]byte("1"))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on port %d", opts.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		log.Println("Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	}()
}

func main() {
	var opts Options

	parser := flags.NewParser(&opts, flags.Default)
	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("Error parsing flags: %v", err)
	}

	log.Printf("Starting event sink server on port %d\n", opts.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewEventServer()
	initHTTPReceiver(ctx, opts, server)

	<-ctx.Done()

	fmt.Printf("\n%s", server.summary())
	log.Println("Shutting down gracefully...")
}
