// Package validate checks input domain names.
package validate

import (
	"regexp"
	"strings"
)

// domainRegexp matches multi-label hostnames with an alphabetic TLD.
var domainRegexp = regexp.MustCompile(`^([a-zA-Z0-9_]([a-zA-Z0-9\-_]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,63}$`)

// IsDomain reports whether s looks like a fully qualified hostname. A single
// trailing dot is accepted.
func IsDomain(s string) bool {
	s = strings.TrimSuffix(s, ".")
	return len(s) <= 253 && domainRegexp.MatchString(s)
}

// Invalid returns the entries of domains that are not hostnames, in order.
func Invalid(domains []string) []string {
	var bad []string
	for _, d := range domains {
		if !IsDomain(d) {
			bad = append(bad, d)
		}
	}
	return bad
}
