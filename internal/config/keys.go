package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// ErrUnknownKey is returned for keys that are not part of the config schema.
var ErrUnknownKey = errors.New("unknown config key")

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
	kindDuration
)

// keyKinds lists every key that may appear in the config file.
var keyKinds = map[string]keyKind{
	"verbose":           kindBool,
	"format":            kindString,
	"concurrency":       kindInt,
	"owner_concurrency": kindInt,
	"proxy":             kindString,
	"user_agent":        kindString,
	"tls_fingerprint":   kindString,
	"pap_limit":         kindString,
	"defang":            kindBool,
	"dns_timeout":       kindDuration,
	"rdap_timeout":      kindDuration,
	"tls_timeout":       kindDuration,
	"tls_insecure":      kindBool,
	"owner_source":      kindString,
	"owner_ipv6":        kindBool,
	"geoip_db":          kindString,
	"rdap_url":          kindString,
	"metrics_file":      kindString,
}

// ValidKeys returns every config key in sorted order.
func ValidKeys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ValidateKey returns an error if key is not a known config key. Hyphenated
// flag names are accepted.
func ValidateKey(key string) error {
	if _, ok := keyKinds[KeyName(key)]; !ok {
		return fmt.Errorf("%w %q (valid: %v)", ErrUnknownKey, key, ValidKeys())
	}
	return nil
}

// ParseValue converts raw into the type stored for key. Enum keys are
// checked against their allowed values.
func ParseValue(key, raw string) (any, error) {
	key = KeyName(key)
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: must be true or false", raw, key)
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid value %q for %s: must be a positive integer", raw, key)
		}
		return n, nil
	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid value %q for %s: must be a positive duration such as 5s", raw, key)
		}
		return d.String(), nil
	}
	if allowed := KeyCompletions(key); allowed != nil && !slices.Contains(allowed, raw) {
		return nil, fmt.Errorf("invalid value %q for %s: must be one of %v", raw, key, allowed)
	}
	return raw, nil
}
