// Package device normalizes raw client device descriptors (user agent strings)
// into a coarse profile and derives a stable fingerprint from it. Classification
// is keyword-based and best-effort, not authoritative: it feeds anomaly
// heuristics, never access decisions.
package device

import "strings"

// Device types.
const (
	TypeDesktop = "desktop"
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
)

// Unknown is the fallback for browser and OS when the descriptor is unparseable.
const Unknown = "Unknown"

// Profile is the normalized form of a raw device descriptor.
type Profile struct {
	Type    string
	Browser string
	OS      string
}

// Classify normalizes a raw device descriptor. Matching is case-insensitive
// substring search; anything unrecognized defaults to desktop/Unknown/Unknown
// rather than failing.
func Classify(raw string) Profile {
	ua := strings.ToLower(raw)
	return Profile{
		Type:    classifyType(ua),
		Browser: classifyBrowser(ua),
		OS:      classifyOS(ua),
	}
}

func classifyType(ua string) string {
	// Tablets first: tablet user agents usually also contain "mobile".
	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"), strings.Contains(ua, "kindle"):
		return TypeTablet
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "iphone"), strings.Contains(ua, "android"):
		return TypeMobile
	default:
		return TypeDesktop
	}
}

func classifyBrowser(ua string) string {
	// Order matters: Edge and Opera embed "chrome", Chrome embeds "safari".
	switch {
	case strings.Contains(ua, "edg"):
		return "Edge"
	case strings.Contains(ua, "opr"), strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "chrome"), strings.Contains(ua, "chromium"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident"):
		return "Internet Explorer"
	default:
		return Unknown
	}
}

func classifyOS(ua string) string {
	// Android before Linux: Android user agents contain "linux".
	// iPhone/iPad before Mac: some iOS agents mention "like Mac OS X".
	switch {
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ios"):
		return "iOS"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac os"), strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "linux"), strings.Contains(ua, "x11"):
		return "Linux"
	default:
		return Unknown
	}
}
