package main

import "context"

// The fixed event vocabulary. Every reportable action in a visit is one of
// these.
const (
	EventMainPage  = "main page"
	EventItemPage  = "item page"
	EventAddToCart = "add to cart"
	EventCheckout  = "checkout"
	EventRegister  = "register"
)

// VisitDeps carries the shared collaborators a visit needs. The registry and
// reporter are shared across all concurrent visits; everything else is
// read-only configuration.
type VisitDeps struct {
	Reporter  *Reporter
	Registry  *Registry
	Profiles  ProfileFetcher
	Catalog   []string
	Progress  int // percent chance of progressing at each decision point
	Returning int // percent chance a visit is driven by a returning shopper
	Log       Logger
}

// Visit drives one simulated browsing session end to end. It keeps no state
// beyond the driving shopper, the returning flag fixed at the start, and the
// cart.
type Visit struct {
	VisitDeps
	rng       Rng
	shopper   *Shopper
	returning bool
	cart      []string
}

func NewVisit(rng Rng, deps VisitDeps) *Visit {
	return &Visit{VisitDeps: deps, rng: rng}
}

// Run walks the visit through the page-flow state machine until the shopper
// checks out or drops off. The only error it can return is a failure to
// generate the visitor's identity; everything downstream either degrades or
// is swallowed by the reporter.
func (v *Visit) Run(ctx context.Context) error {
	if err := v.chooseShopper(); err != nil {
		return err
	}

	for {
		v.Reporter.Track(ctx, v.shopper, EventMainPage, nil)

		// main page: progress to an item, or wander / drop
		if !v.Progressed() {
			if v.rng.Bool() {
				continue
			}
			return nil
		}

		item := v.rng.Choice(v.Catalog)
		v.Reporter.Track(ctx, v.shopper, EventItemPage, map[string]any{"item name": item})

		// item page: add to cart, head straight to checkout, or wander / drop
		if v.Progressed() {
			v.cart = append(v.cart, item)
			v.Reporter.Track(ctx, v.shopper, EventAddToCart, map[string]any{"item name": item})
			v.checkout(ctx)
			return nil
		}
		if v.Progressed() {
			v.checkout(ctx)
			return nil
		}
		if v.rng.Bool() {
			continue
		}
		return nil
	}
}

// Progressed is the p1 coin: did the shopper move forward at this decision
// point?
func (v *Visit) Progressed() bool {
	return v.rng.BoolWithProb(v.Progress)
}

// chooseShopper decides once, at visit start, whether this visit is driven
// by a returning registered shopper. If nobody has registered yet the visit
// falls back to a fresh anonymous shopper and is not considered returning.
func (v *Visit) chooseShopper() error {
	if v.rng.BoolWithProb(v.Returning) {
		if shopper, ok := v.Registry.PickRandom(v.rng); ok {
			v.shopper = shopper
			v.returning = true
			return nil
		}
	}
	identity, err := NewIdentity(v.rng)
	if err != nil {
		return err
	}
	v.shopper = NewAnonymousShopper(identity)
	return nil
}

// checkout ends the visit. An empty cart returns silently; otherwise the
// shopper either completes the purchase (registering first if they are new)
// or abandons the cart.
func (v *Visit) checkout(ctx context.Context) {
	if len(v.cart) == 0 {
		return
	}
	if !v.Progressed() {
		return
	}
	v.register(ctx)
	v.Reporter.Track(ctx, v.shopper, EventCheckout, map[string]any{"items": v.cartContents()})
	v.cart = nil
}

// register promotes an anonymous first-time shopper into the registry. The
// profile is fetched before touching the registry so no lock is held across
// the network call. If enrichment fails the visit logs it and carries on
// anonymously; the failure aborts only the registration, not the visit.
func (v *Visit) register(ctx context.Context) {
	if v.returning || v.shopper.Kind == Registered {
		return
	}
	if !v.Progressed() {
		return
	}
	v.Reporter.Track(ctx, v.shopper, EventRegister, map[string]any{"items": v.cartContents()})

	profile, err := v.Profiles.FetchProfile(ctx)
	if err != nil {
		v.Log.Warn("shopper %s stays anonymous: %v\n", v.shopper.ID, err)
		return
	}
	registered := v.Registry.Register(v.shopper, profile)
	v.Reporter.SetProfile(ctx, registered)
	v.shopper = registered
}

func (v *Visit) cartContents() []string {
	return append([]string(nil), v.cart...)
}
