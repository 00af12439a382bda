package asn_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services/asn"
	"github.com/tbckr/nsolver/internal/testutil"
)

func googleResolver() *testutil.MockResolver {
	return &testutil.MockResolver{
		LookupTXTFn: func(_ context.Context, host string) ([]string, error) {
			switch host {
			case "8.8.8.8.origin.asn.cymru.com":
				return []string{"15169 | 8.8.8.0/24 | US | arin | 1992-12-01"}, nil
			case "AS15169.asn.cymru.com":
				return []string{"15169 | US | arin | 2000-03-30 | GOOGLE, US"}, nil
			}
			return nil, errors.New("unexpected host")
		},
	}
}

func TestService_Metadata(t *testing.T) {
	svc := asn.NewService(&testutil.MockResolver{}, 0, testutil.NopLogger())
	assert.Equal(t, "cymru", svc.Name())
	assert.Equal(t, pap.AMBER, svc.PAP())
}

func TestLookup_IPv4(t *testing.T) {
	svc := asn.NewService(googleResolver(), 0, testutil.NopLogger())
	origin, err := svc.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)

	assert.Equal(t, "AS15169", origin.ASN)
	assert.Equal(t, "8.8.8.0/24", origin.Prefix)
	assert.Equal(t, "US", origin.Country)
	assert.Equal(t, "arin", origin.Registry)
	assert.Equal(t, "GOOGLE", origin.Description)
}

func TestLookupOwner_ReturnsDescription(t *testing.T) {
	svc := asn.NewService(googleResolver(), 0, testutil.NopLogger())
	owner, err := svc.LookupOwner(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "GOOGLE", owner)
}

func TestLookupOwner_IPv6(t *testing.T) {
	var queried []string
	resolver := &testutil.MockResolver{
		LookupTXTFn: func(_ context.Context, host string) ([]string, error) {
			queried = append(queried, host)
			switch host {
			case "8.8.8.8.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.6.8.4.0.6.8.4.1.0.0.2.origin6.asn.cymru.com":
				return []string{"15169 | 2001:4860::/32 | US | arin | 2005-03-14"}, nil
			case "AS15169.asn.cymru.com":
				return []string{"15169 | US | arin | 2000-03-30 | GOOGLE, US"}, nil
			}
			return nil, errors.New("unexpected host")
		},
	}

	svc := asn.NewService(resolver, 0, testutil.NopLogger())
	owner, err := svc.LookupOwner(context.Background(), "2001:4860:4860::8888")
	require.NoError(t, err)
	assert.Equal(t, "GOOGLE", owner)
	assert.Len(t, queried, 2)
}

func TestLookupOwner_FallsBackToASN(t *testing.T) {
	resolver := &testutil.MockResolver{
		LookupTXTFn: func(_ context.Context, host string) ([]string, error) {
			if host == "1.1.1.1.origin.asn.cymru.com" {
				return []string{"13335 | 1.1.1.0/24 | AU | apnic | 2011-08-11"}, nil
			}
			return nil, errors.New("timeout")
		},
	}

	svc := asn.NewService(resolver, 0, testutil.NopLogger())
	owner, err := svc.LookupOwner(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "AS13335", owner)
}

func TestLookupOwner_MultiOrigin(t *testing.T) {
	resolver := &testutil.MockResolver{
		LookupTXTFn: func(_ context.Context, host string) ([]string, error) {
			if host == "1.0.0.10.origin.asn.cymru.com" {
				return []string{"64500 64501 | 10.0.0.0/8 | ZZ | other | "}, nil
			}
			return nil, nil
		},
	}

	svc := asn.NewService(resolver, 0, testutil.NopLogger())
	origin, err := svc.Lookup(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "AS64500", origin.ASN)
	assert.Equal(t, "AS64500", origin.Owner())
}

func TestLookupOwner_Failures(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		err  error
		txts []string
		kind apperr.Kind
	}{
		{name: "not announced", ip: "192.0.2.1", err: &net.DNSError{Err: "no such host", IsNotFound: true}, kind: apperr.KindNXDomain},
		{name: "resolver timeout", ip: "192.0.2.1", err: &net.DNSError{Err: "i/o timeout", IsTimeout: true}, kind: apperr.KindTimeout},
		{name: "deadline", ip: "192.0.2.1", err: context.DeadlineExceeded, kind: apperr.KindTimeout},
		{name: "other error", ip: "192.0.2.1", err: errors.New("boom"), kind: apperr.KindNetwork},
		{name: "empty answer", ip: "192.0.2.1", txts: []string{}, kind: apperr.KindMissingField},
		{name: "invalid ip", ip: "example.com", kind: apperr.KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &testutil.MockResolver{
				LookupTXTFn: func(context.Context, string) ([]string, error) {
					return tt.txts, tt.err
				},
			}
			svc := asn.NewService(resolver, 0, testutil.NopLogger())
			owner, err := svc.LookupOwner(context.Background(), tt.ip)
			require.Error(t, err)
			assert.Empty(t, owner)
			assert.ErrorIs(t, err, apperr.ErrOwnership)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestLookup_DescriptionCountrySuffix(t *testing.T) {
	tests := []struct {
		name    string
		txt     string
		want    string
		country string
	}{
		{name: "suffix matches country", txt: "64500 | DE | ripencc | 2001-01-01 | EXAMPLE, INC., DE", want: "EXAMPLE, INC.", country: "DE"},
		{name: "suffix differs", txt: "64500 | DE | ripencc | 2001-01-01 | EXAMPLE, US", want: "EXAMPLE, US", country: "DE"},
		{name: "no suffix", txt: "64500 | DE | ripencc | 2001-01-01 | EXAMPLE-NET", want: "EXAMPLE-NET", country: "DE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &testutil.MockResolver{
				LookupTXTFn: func(_ context.Context, host string) ([]string, error) {
					if host == "1.2.0.192.origin.asn.cymru.com" {
						return []string{"64500 | 192.0.2.0/24 | | ripencc | 2001-01-01"}, nil
					}
					return []string{tt.txt}, nil
				},
			}
			svc := asn.NewService(resolver, 0, testutil.NopLogger())
			origin, err := svc.Lookup(context.Background(), "192.0.2.1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, origin.Description)
			assert.Equal(t, tt.country, origin.Country)
		})
	}
}

func TestLookup_TimeoutBoundsEachQuery(t *testing.T) {
	resolver := &testutil.MockResolver{
		LookupTXTFn: func(ctx context.Context, _ string) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc := asn.NewService(resolver, 20*time.Millisecond, testutil.NopLogger())

	start := time.Now()
	_, err := svc.LookupOwner(context.Background(), "192.0.2.1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}
