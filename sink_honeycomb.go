package main

import (
	"context"

	libhoney "github.com/honeycombio/libhoney-go"
)

// HoneycombSink sends each event to a Honeycomb dataset via libhoney, which
// batches and retries internally. Profile updates are modeled as their own
// event type since Honeycomb has no persistent profile store.
type HoneycombSink struct {
	builder *libhoney.Builder
	log     Logger
}

var _ Sink = (*HoneycombSink)(nil)

func NewHoneycombSink(log Logger, opts *Options) (*HoneycombSink, error) {
	err := libhoney.Init(libhoney.Config{
		WriteKey: opts.Destinations.APIKey,
		Dataset:  opts.Destinations.Dataset,
		APIHost:  opts.apihost.String(),
	})
	if err != nil {
		return nil, err
	}

	// log transmission failures without ever surfacing them to a visit
	go func() {
		for resp := range libhoney.TxResponses() {
			if resp.Err != nil {
				log.Warn("honeycomb send failed: %v (%s)\n", resp.Err, resp.Body)
			}
		}
	}()

	return &HoneycombSink{builder: libhoney.NewBuilder(), log: log}, nil
}

func (h *HoneycombSink) Track(ctx context.Context, shopperID, event string, props map[string]any) error {
	ev := h.builder.NewEvent()
	ev.AddField("event", event)
	ev.AddField("shopper_id", shopperID)
	for k, v := range props {
		ev.AddField(k, v)
	}
	return ev.Send()
}

func (h *HoneycombSink) SetProfile(ctx context.Context, shopperID string, props map[string]any) error {
	ev := h.builder.NewEvent()
	ev.AddField("event", "shopper profile")
	ev.AddField("shopper_id", shopperID)
	for k, v := range props {
		ev.AddField(k, v)
	}
	return ev.Send()
}

func (h *HoneycombSink) Close() {
	libhoney.Close()
}
