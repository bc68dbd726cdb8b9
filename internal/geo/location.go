// Package geo resolves network addresses to coarse locations for anomaly
// heuristics. Results are country/region/city only; anything finer-grained is
// out of scope and lookups are always best-effort.
package geo

import "net/netip"

// Location is a coarse geographic resolution of a network address.
// The zero value means unresolved.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// Unknown is the sentinel for addresses that could not be resolved.
var Unknown = Location{}

// Local is the sentinel for private and reserved ranges; these never reach the
// external provider.
var Local = Location{Country: "Local", Region: "Local", City: "Local"}

// Known reports whether the location carries any resolved component.
func (l Location) Known() bool {
	return l != Unknown
}

// SameArea reports whether both locations agree on country and region.
// An unknown location on either side is treated as disagreement (fails closed).
func (l Location) SameArea(other Location) bool {
	if !l.Known() || !other.Known() {
		return false
	}
	return l.Country == other.Country && l.Region == other.Region
}

// IsPrivateOrReserved reports whether addr is in a private, loopback,
// link-local, multicast, or unspecified range.
func IsPrivateOrReserved(addr string) bool {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	return a.IsPrivate() || a.IsLoopback() || a.IsLinkLocalUnicast() ||
		a.IsLinkLocalMulticast() || a.IsMulticast() || a.IsUnspecified()
}
