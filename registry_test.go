package main

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile(name string) *Profile {
	return &Profile{
		Name:        name,
		DateOfBirth: time.Date(1975, time.May, 20, 0, 0, 0, 0, time.UTC),
		City:        "Testville",
		Gender:      "female",
		Age:         50,
		Email:       "test@example.com",
	}
}

func TestRegisterPreservesIdentity(t *testing.T) {
	registry := NewRegistry()
	anon := NewAnonymousShopper(Identity{
		ID:        "abc-123",
		UserAgent: "Mozilla/5.0 test",
		IPAddress: "8.8.4.4",
	})

	registered := registry.Register(anon, testProfile("Maria Silva"))

	assert.Equal(t, anon.ID, registered.ID)
	assert.Equal(t, anon.UserAgent, registered.UserAgent)
	assert.Equal(t, anon.IPAddress, registered.IPAddress)
	assert.Equal(t, Registered, registered.Kind)
	assert.Equal(t, Anonymous, anon.Kind, "the anonymous shopper is untouched")

	props := registered.Properties()
	assert.Equal(t, "abc-123", props["uuid"])
	assert.Equal(t, "8.8.4.4", props["ip"])
	assert.Equal(t, "Maria Silva", props["Name"])
	assert.Equal(t, 1, registry.Len())
}

func TestIdentityFieldsWinOnCollision(t *testing.T) {
	shopper := &Shopper{
		ID:        "real-id",
		UserAgent: "real-agent",
		IPAddress: "9.9.9.9",
		Kind:      Registered,
		extra:     map[string]any{"uuid": "spoofed", "ip": "10.0.0.1", "Name": "Kim"},
	}

	props := shopper.Properties()
	assert.Equal(t, "real-id", props["uuid"])
	assert.Equal(t, "9.9.9.9", props["ip"])
	assert.Equal(t, "real-agent", props["user_agent"])
	assert.Equal(t, "Kim", props["Name"])
}

func TestPickRandomOnEmptyRegistry(t *testing.T) {
	registry := NewRegistry()
	shopper, ok := registry.PickRandom(NewRng("empty"))
	assert.False(t, ok)
	assert.Nil(t, shopper)
}

func TestConcurrentRegisterLosesNothing(t *testing.T) {
	const k = 200
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			anon := NewAnonymousShopper(Identity{
				ID:        fmt.Sprintf("shopper-%d", n),
				UserAgent: "agent",
				IPAddress: "8.8.8.8",
			})
			registry.Register(anon, testProfile("Shopper"))
		}(i)
	}

	// concurrent readers must never observe a torn entry
	done := make(chan struct{})
	go func() {
		defer close(done)
		rng := NewRng("reader")
		for i := 0; i < 1000; i++ {
			if shopper, ok := registry.PickRandom(rng); ok {
				assert.NotEmpty(t, shopper.ID)
				assert.Equal(t, Registered, shopper.Kind)
			}
		}
	}()

	wg.Wait()
	<-done

	require.Equal(t, k, registry.Len())
	seen := map[string]bool{}
	rng := NewRng("dedup")
	for i := 0; i < 100*k; i++ {
		shopper, ok := registry.PickRandom(rng)
		require.True(t, ok)
		seen[shopper.ID] = true
	}
	assert.Len(t, seen, k, "every registered shopper must be reachable")
}
