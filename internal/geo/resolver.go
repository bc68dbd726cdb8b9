package geo

import "context"

// Resolver resolves a network address to a coarse location. Implementations
// return (Unknown, err) on failure; callers degrade to Unknown and never
// propagate resolver errors into request handling.
type Resolver interface {
	Resolve(ctx context.Context, addr string) (Location, error)
}

// ResolveOrUnknown resolves addr and swallows any error, returning Unknown.
// Resolver failures must never fail a request; worst case is a stale or
// missing location field.
func ResolveOrUnknown(ctx context.Context, r Resolver, addr string) Location {
	if r == nil {
		return Unknown
	}
	loc, err := r.Resolve(ctx, addr)
	if err != nil {
		return Unknown
	}
	return loc
}

// StaticResolver maps addresses to fixed locations. Used in tests and as a
// stand-in when no provider is configured.
type StaticResolver struct {
	Locations map[string]Location
}

// Resolve returns the configured location for addr; private ranges resolve to
// Local, everything else to Unknown.
func (s *StaticResolver) Resolve(_ context.Context, addr string) (Location, error) {
	if IsPrivateOrReserved(addr) {
		return Local, nil
	}
	if s == nil || s.Locations == nil {
		return Unknown, nil
	}
	if loc, ok := s.Locations[addr]; ok {
		return loc, nil
	}
	return Unknown, nil
}
