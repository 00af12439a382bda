package pap

import (
	"fmt"
	"strings"
)

// Level is the PAP activity level of a probe or the user's configured limit.
// Higher values are more target-facing.
type Level int

const (
	// RED: offline lookups only. Most restrictive as a limit.
	RED Level = iota
	// AMBER: third-party registries that never touch the target.
	AMBER
	// GREEN: traffic that reaches the target or its name servers.
	GREEN
	// WHITE: unrestricted. Most permissive as a limit.
	WHITE
)

// Levels lists every level from least to most permissive.
var Levels = []Level{RED, AMBER, GREEN, WHITE}

// Parse converts a case-insensitive string ("red", "amber", "green", "white") to a Level.
func Parse(s string) (Level, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, l := range Levels {
		if l.String() == needle {
			return l, nil
		}
	}
	return WHITE, fmt.Errorf("unknown PAP level %q: must be one of red, amber, green, white", s)
}

// String returns the lowercase name of l.
func (l Level) String() string {
	switch l {
	case RED:
		return "red"
	case AMBER:
		return "amber"
	case GREEN:
		return "green"
	case WHITE:
		return "white"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Allows reports whether limit permits a probe running at level.
//
//	Allows(WHITE, GREEN) == true   // unrestricted limit allows everything
//	Allows(AMBER, GREEN) == false  // TLS handshakes are blocked under AMBER
//	Allows(AMBER, RED)   == true   // offline GeoIP is always fine
func Allows(limit, level Level) bool {
	return level <= limit
}
