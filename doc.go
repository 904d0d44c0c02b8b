package main

// shopgen simulates shopper traffic against a fictitious e-commerce site and
// reports every simulated action as an analytics event. It exists to
// load-test and demo-seed analytics pipelines, not to run a store.
//
// Each visit is an independent unit of work driven by a weighted-random state
// machine:
//
//	main page -> item page -> add to cart -> checkout
//
// with a chance at every step of looping back to the main page or dropping
// off entirely. A visit is driven either by a brand-new anonymous shopper
// (fresh uuid, user agent, and public IP address) or, once some shoppers have
// registered, by a returning registered shopper picked at random from the
// shared pool. An anonymous shopper who reaches checkout may register: the
// simulator fetches a randomized demographic profile, promotes the shopper
// into the registered pool, and pushes the profile to every destination.
//
// Events are fanned out to zero or more analytics destinations:
//
//   - mixpanel: one destination per configured project token
//   - honeycomb: libhoney events keyed by write key and dataset
//   - print: human-readable lines on stdout
//   - dummy: counts events and discards them
//
// A destination failure is logged and counted but never aborts a visit, and a
// failing visit never prevents the rest of the batch from running.
//
// Traffic volume is controlled by --visits (total visits to simulate) and
// --workers (how many run concurrently). All randomness is derived from
// --seed, so two runs with the same seed and configuration emit the same
// traffic.
