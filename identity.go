package main

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// maxIPAttempts caps the sample-and-reject loop in randomPublicIPv4. The
// non-routable share of the 32-bit space is small, so hitting this cap means
// the random source is broken, not unlucky.
const maxIPAttempts = 1000

// GenerationError reports that identity generation exhausted its retry
// budget.
type GenerationError struct {
	Attempts int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("identity generation gave up after %d attempts", e.Attempts)
}

// Identity is the synthetic network identity of one shopper.
type Identity struct {
	ID        string
	UserAgent string
	IPAddress string
}

// NewIdentity generates a fresh visitor identity: a random uuid, a user agent
// from the device/OS-weighted pool, and a syntactically valid public IPv4
// address.
func NewIdentity(rng Rng) (Identity, error) {
	ip, err := randomPublicIPv4(rng)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:        uuid.NewString(),
		UserAgent: randomUserAgent(rng),
		IPAddress: ip,
	}, nil
}

// userAgentPool weights the browser mix roughly like real-world device/OS
// share. The weights are design parameters, not measurements.
var userAgentPool = []Weighted[func(*gofakeit.Faker) string]{
	{Value: (*gofakeit.Faker).ChromeUserAgent, Weight: 55},
	{Value: (*gofakeit.Faker).SafariUserAgent, Weight: 20},
	{Value: (*gofakeit.Faker).FirefoxUserAgent, Weight: 15},
	{Value: (*gofakeit.Faker).OperaUserAgent, Weight: 10},
}

func randomUserAgent(rng Rng) string {
	faker := gofakeit.New(rng.Uint64())
	gen := WeightedChoice(rng, userAgentPool)
	return gen(faker)
}

// reservedNets holds the IPv4 blocks rejected by randomPublicIPv4 beyond
// what netip.Addr classifies directly: "this network", shared CGN space,
// IETF protocol assignments, the documentation and benchmarking blocks,
// class E future use, and broadcast.
var reservedNets = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
}

func isPublicIPv4(addr netip.Addr) bool {
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsMulticast() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsUnspecified() {
		return false
	}
	for _, net := range reservedNets {
		if net.Contains(addr) {
			return false
		}
	}
	return true
}

// randomPublicIPv4 samples uniformly random 32-bit values and rejects any
// that fall in private-use or reserved space, accepting the first address
// that is neither.
func randomPublicIPv4(rng Rng) (string, error) {
	for i := 0; i < maxIPAttempts; i++ {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], rng.Uint32())
		addr := netip.AddrFrom4(b)
		if isPublicIPv4(addr) {
			return addr.String(), nil
		}
	}
	return "", &GenerationError{Attempts: maxIPAttempts}
}
