package output

import (
	"net"
	"strings"

	"github.com/tbckr/nsolver/internal/pap"
)

// DefangDomain replaces all dots in a domain name with [.] to prevent
// clickable links in reports. Example: "example.com" → "example[.]com".
func DefangDomain(s string) string {
	return strings.ReplaceAll(s, ".", "[.]")
}

// DefangIP defangs an IP address string.
// IPv4: "1.2.3.4" → "1[.]2[.]3[.]4". IPv6: "::1" → "[::1]".
// Non-IP strings are returned unchanged.
func DefangIP(s string) string {
	ip := net.ParseIP(s)
	if ip == nil {
		return s
	}
	if ip.To4() != nil {
		return strings.ReplaceAll(s, ".", "[.]")
	}
	return "[" + s + "]"
}

// DefangList applies fn to every element of values and returns a new slice.
func DefangList(values []string, fn func(string) string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fn(v)
	}
	return out
}

// ResolveDefang determines whether output should be defanged.
//
//   - --defang always defangs, including JSON.
//   - A PAP limit of AMBER or RED defangs every format except JSON, whose
//     consumers want unmodified data.
//   - Otherwise output is left as is.
func ResolveDefang(papLevel pap.Level, format Format, explicitDefang bool) bool {
	isPAPTriggered := papLevel == pap.AMBER || papLevel == pap.RED
	return explicitDefang || (isPAPTriggered && format != FormatJSON)
}
