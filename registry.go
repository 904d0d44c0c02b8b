package main

import "sync"

// Registry is the process-wide pool of registered shoppers, shared by every
// concurrently running visit. It is append-only: shoppers are never removed
// or edited after registration. The owner (the orchestrator) constructs one
// and hands it to each visit; nothing here is a package-level singleton.
type Registry struct {
	mu       sync.RWMutex
	shoppers []*Shopper
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register promotes an anonymous shopper: the profile's properties are
// merged under the shopper's identity fields (identity wins on collision),
// the result is appended to the pool and returned. Register is not
// idempotent; callers call it at most once per promotion. The append is a
// pure in-memory operation, so callers must fetch the profile before calling
// it rather than holding the registry hostage to a network round trip.
func (r *Registry) Register(anon *Shopper, profile *Profile) *Shopper {
	registered := anon.promote(profile)
	r.mu.Lock()
	r.shoppers = append(r.shoppers, registered)
	r.mu.Unlock()
	return registered
}

// PickRandom returns a uniformly random registered shopper, or false if
// nobody has registered yet. Safe to call concurrently with Register; it
// sees some consistent prefix of completed registrations.
func (r *Registry) PickRandom(rng Rng) (*Shopper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.shoppers) == 0 {
		return nil, false
	}
	return r.shoppers[rng.Intn(len(r.shoppers))], true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shoppers)
}
