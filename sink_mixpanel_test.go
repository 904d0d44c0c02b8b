package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeMixpanelBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	require.NoError(t, r.ParseForm())
	raw, err := base64.StdEncoding.DecodeString(r.FormValue("data"))
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestMixpanelSinkTrack(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/track", r.URL.Path)
		got = decodeMixpanelBody(t, r)
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	host, err := url.Parse(srv.URL)
	require.NoError(t, err)
	sink := NewMixpanelSink("tok-1", host)

	err = sink.Track(context.Background(), "shopper-1", EventAddToCart, map[string]any{"item name": "teapot"})
	require.NoError(t, err)

	assert.Equal(t, EventAddToCart, got["event"])
	props := got["properties"].(map[string]any)
	assert.Equal(t, "tok-1", props["token"])
	assert.Equal(t, "shopper-1", props["distinct_id"])
	assert.Equal(t, "teapot", props["item name"])
	assert.NotZero(t, props["time"])
}

func TestMixpanelSinkSetProfile(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/engage", r.URL.Path)
		got = decodeMixpanelBody(t, r)
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	host, err := url.Parse(srv.URL)
	require.NoError(t, err)
	sink := NewMixpanelSink("tok-1", host)

	err = sink.SetProfile(context.Background(), "shopper-1", map[string]any{"Name": "Maria Silva"})
	require.NoError(t, err)

	assert.Equal(t, "tok-1", got["$token"])
	assert.Equal(t, "shopper-1", got["$distinct_id"])
	assert.Equal(t, map[string]any{"Name": "Maria Silva"}, got["$set"])
}

func TestMixpanelSinkErrors(t *testing.T) {
	t.Run("silent rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("0"))
		}))
		defer srv.Close()

		host, _ := url.Parse(srv.URL)
		err := NewMixpanelSink("tok", host).Track(context.Background(), "s", EventMainPage, nil)
		assert.Error(t, err)
	})

	t.Run("http failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		}))
		defer srv.Close()

		host, _ := url.Parse(srv.URL)
		err := NewMixpanelSink("tok", host).Track(context.Background(), "s", EventMainPage, nil)
		assert.Error(t, err)
	})
}
