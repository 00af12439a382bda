package owner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services/owner"
	"github.com/tbckr/nsolver/internal/testutil"
)

func TestParseSource(t *testing.T) {
	for _, src := range owner.Sources {
		got, err := owner.ParseSource(string(src))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}
	got, err := owner.ParseSource("RDAP")
	require.NoError(t, err)
	assert.Equal(t, owner.SourceRDAP, got)

	_, err = owner.ParseSource("whois")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCache_DelegatesMetadata(t *testing.T) {
	c := owner.NewCache(&testutil.MockOwner{NameValue: "rdap", PAPValue: pap.AMBER})
	assert.Equal(t, "rdap", c.Name())
	assert.Equal(t, pap.AMBER, c.PAP())
}

func TestCache_MemoisesSuccessAndFailure(t *testing.T) {
	var calls atomic.Int32
	backend := &testutil.MockOwner{
		LookupOwnerFn: func(_ context.Context, ip string) (string, error) {
			calls.Add(1)
			if ip == "192.0.2.1" {
				return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindHTTPStatus, errors.New("404"))
			}
			return "OWNER-" + ip, nil
		},
	}
	c := owner.NewCache(backend)

	for range 3 {
		name, err := c.LookupOwner(context.Background(), "8.8.8.8")
		require.NoError(t, err)
		assert.Equal(t, "OWNER-8.8.8.8", name)

		_, err = c.LookupOwner(context.Background(), "192.0.2.1")
		assert.Equal(t, apperr.KindHTTPStatus, apperr.KindOf(err))
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCache_DoesNotMemoiseCancellation(t *testing.T) {
	var calls atomic.Int32
	backend := &testutil.MockOwner{
		LookupOwnerFn: func(ctx context.Context, ip string) (string, error) {
			calls.Add(1)
			if err := ctx.Err(); err != nil {
				return "", apperr.NewProbeError(apperr.ProbeOwner, ip, "", err)
			}
			return "OWNER", nil
		},
	}
	c := owner.NewCache(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.LookupOwner(ctx, "8.8.8.8")
	assert.Equal(t, apperr.KindCanceled, apperr.KindOf(err))
	assert.Equal(t, 0, c.Len())

	name, err := c.LookupOwner(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "OWNER", name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_CollapsesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	backend := &testutil.MockOwner{
		LookupOwnerFn: func(context.Context, string) (string, error) {
			calls.Add(1)
			<-release
			return "OWNER", nil
		},
	}
	c := owner.NewCache(backend)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			name, err := c.LookupOwner(context.Background(), "8.8.8.8")
			assert.NoError(t, err)
			assert.Equal(t, "OWNER", name)
		})
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}
