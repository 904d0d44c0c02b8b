package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MixpanelSink sends events to one Mixpanel project over the two ingestion
// endpoints: /track for events and /engage for profile updates. Each
// configured project token gets its own sink.
type MixpanelSink struct {
	token  string
	host   string
	client *http.Client
}

var _ Sink = (*MixpanelSink)(nil)

func NewMixpanelSink(token string, host *url.URL) *MixpanelSink {
	return &MixpanelSink{
		token:  token,
		host:   strings.TrimRight(host.String(), "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *MixpanelSink) Track(ctx context.Context, shopperID, event string, props map[string]any) error {
	merged := make(map[string]any, len(props)+3)
	for k, v := range props {
		merged[k] = v
	}
	merged["token"] = m.token
	merged["distinct_id"] = shopperID
	merged["time"] = time.Now().Unix()
	return m.post(ctx, "/track", map[string]any{
		"event":      event,
		"properties": merged,
	})
}

func (m *MixpanelSink) SetProfile(ctx context.Context, shopperID string, props map[string]any) error {
	return m.post(ctx, "/engage", map[string]any{
		"$token":       m.token,
		"$distinct_id": shopperID,
		"$set":         props,
	})
}

func (m *MixpanelSink) Close() {}

// post submits one payload the way the ingestion API expects it: JSON,
// base64-encoded, in a form field named "data". The API answers 200 with a
// body of "1" on success and "0" on silent rejection.
func (m *MixpanelSink) post(ctx context.Context, path string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	form := url.Values{"data": {base64.StdEncoding.EncodeToString(raw)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.host+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mixpanel %s: unexpected status %s", path, resp.Status)
	}
	if strings.TrimSpace(string(body)) == "0" {
		return fmt.Errorf("mixpanel %s: payload rejected", path)
	}
	return nil
}
