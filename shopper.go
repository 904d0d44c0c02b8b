package main

// ShopperKind distinguishes the two shopper variants. An anonymous shopper
// lives only for the duration of one visit; a registered shopper is held in
// the registry and can drive any number of future visits.
type ShopperKind int

const (
	Anonymous ShopperKind = iota
	Registered
)

func (k ShopperKind) String() string {
	if k == Registered {
		return "registered"
	}
	return "anonymous"
}

// Shopper is one simulated actor. ID, UserAgent and IPAddress are fixed at
// creation and never change; a registered shopper additionally carries the
// demographic properties merged in at promotion time. Shoppers are immutable
// once constructed, which is what makes sharing registered shoppers across
// concurrent visits safe.
type Shopper struct {
	ID        string
	UserAgent string
	IPAddress string
	Kind      ShopperKind

	extra map[string]any // demographic properties; nil for anonymous shoppers
}

// NewAnonymousShopper builds a fresh ephemeral shopper from a generated
// identity.
func NewAnonymousShopper(id Identity) *Shopper {
	return &Shopper{
		ID:        id.ID,
		UserAgent: id.UserAgent,
		IPAddress: id.IPAddress,
		Kind:      Anonymous,
	}
}

// promote returns the registered counterpart of an anonymous shopper. The
// identity fields are copied verbatim; profile properties never override
// them.
func (s *Shopper) promote(profile *Profile) *Shopper {
	return &Shopper{
		ID:        s.ID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		Kind:      Registered,
		extra:     profile.Properties(),
	}
}

// Properties returns the full property set sent with every event for this
// shopper: the base identity fields plus, for registered shoppers, the
// demographic profile. The result is a fresh map the caller may extend.
func (s *Shopper) Properties() map[string]any {
	props := make(map[string]any, len(s.extra)+3)
	for k, v := range s.extra {
		props[k] = v
	}
	// identity fields win on collision
	props["uuid"] = s.ID
	props["user_agent"] = s.UserAgent
	props["ip"] = s.IPAddress
	return props
}
