package domain

import (
	"errors"
	"net/netip"
	"strings"
	"time"
)

// Validation errors returned by Record.Validate before anything is persisted.
var (
	ErrMissingUser       = errors.New("session: user id required")
	ErrMissingOrg        = errors.New("session: org id required")
	ErrMissingToken      = errors.New("session: token hash required")
	ErrInvalidIPAddress  = errors.New("session: ip address is not a valid address")
	ErrMissingDescriptor = errors.New("session: device descriptor required")
)

// Record tracks one authenticated client connection. The raw session token is
// owned by the auth layer; records are keyed by its SHA-256 hash. The network
// and device fields recorded at creation form the baseline that later requests
// are compared against.
type Record struct {
	ID        string
	TokenHash string
	UserID    string
	OrgID     string

	IPAddress string
	UserAgent string // raw device descriptor as presented by the client

	DeviceType string
	Browser    string
	OS         string

	Country string
	Region  string
	City    string

	Active     bool
	RememberMe bool

	ExpiresAt      time.Time
	LastActivityAt *time.Time
	EndedAt        *time.Time
	CreatedAt      time.Time
}

// Validate checks the fields required at creation time.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(r.OrgID) == "" {
		return ErrMissingOrg
	}
	if strings.TrimSpace(r.TokenHash) == "" {
		return ErrMissingToken
	}
	if _, err := netip.ParseAddr(r.IPAddress); err != nil {
		return ErrInvalidIPAddress
	}
	if strings.TrimSpace(r.UserAgent) == "" {
		return ErrMissingDescriptor
	}
	return nil
}

// Expired reports whether the record's token has passed expiry at the given time.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// LocationKey returns "country/region/city" for grouping, or "" when no
// component is known. Used by the concurrent-session heuristics.
func (r *Record) LocationKey() string {
	if r.Country == "" && r.Region == "" && r.City == "" {
		return ""
	}
	return r.Country + "/" + r.Region + "/" + r.City
}
