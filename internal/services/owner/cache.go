// Package owner holds the backend-independent half of the Ownership
// Resolver: backend selection and the per-run lookup memo.
package owner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services"
)

// Source names an ownership backend.
type Source string

const (
	SourceRDAP  Source = "rdap"
	SourceCymru Source = "cymru"
	SourceGeoIP Source = "geoip"
)

// Sources lists the valid backends in display order.
var Sources = []Source{SourceRDAP, SourceCymru, SourceGeoIP}

// ParseSource returns the Source for s (case-insensitive).
func ParseSource(s string) (Source, error) {
	for _, src := range Sources {
		if strings.EqualFold(s, string(src)) {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: unknown owner source %q (valid: rdap, cymru, geoip)", apperr.ErrInvalidInput, s)
}

type entry struct {
	name string
	err  error
}

// Cache memoises a backend for the duration of one run so each distinct
// address is looked up at most once. Concurrent callers for the same address
// share a single in-flight request. Cancellations are not memoised.
type Cache struct {
	backend services.OwnerLookup
	group   singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
}

var _ services.OwnerLookup = (*Cache)(nil)

// NewCache wraps backend with a per-run memo.
func NewCache(backend services.OwnerLookup) *Cache {
	return &Cache{backend: backend, entries: make(map[string]entry)}
}

// Name returns the wrapped backend's name.
func (c *Cache) Name() string { return c.backend.Name() }

// PAP returns the wrapped backend's PAP level.
func (c *Cache) PAP() pap.Level { return c.backend.PAP() }

// Len reports the number of memoised addresses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// LookupOwner returns the memoised answer for ip or queries the backend.
func (c *Cache) LookupOwner(ctx context.Context, ip string) (string, error) {
	c.mu.Lock()
	e, ok := c.entries[ip]
	c.mu.Unlock()
	if ok {
		return e.name, e.err
	}

	v, _, _ := c.group.Do(ip, func() (any, error) {
		name, err := c.backend.LookupOwner(ctx, ip)
		e := entry{name: name, err: err}
		if apperr.KindOf(err) != apperr.KindCanceled {
			c.mu.Lock()
			c.entries[ip] = e
			c.mu.Unlock()
		}
		return e, nil
	})
	e = v.(entry)
	return e.name, e.err
}
