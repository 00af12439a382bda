// Package testutil provides shared test helpers for probe unit tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/miekg/dns"

	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/resolver"
	"github.com/tbckr/nsolver/internal/services"
)

// MockResolver implements services.TXTResolver for testing.
type MockResolver struct {
	LookupTXTFn func(ctx context.Context, name string) ([]string, error)
}

var _ services.TXTResolver = (*MockResolver)(nil)

// LookupTXT implements services.TXTResolver.
func (m *MockResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if m.LookupTXTFn != nil {
		return m.LookupTXTFn(ctx, name)
	}
	return nil, nil
}

// MockOwner implements services.OwnerLookup for testing.
// A nil LookupOwnerFn answers "MOCK-OWNER" for every address.
type MockOwner struct {
	NameValue     string
	PAPValue      pap.Level
	LookupOwnerFn func(ctx context.Context, ip string) (string, error)
}

var _ services.OwnerLookup = (*MockOwner)(nil)

// Name implements services.OwnerLookup.
func (m *MockOwner) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// PAP implements services.OwnerLookup. The zero value is RED.
func (m *MockOwner) PAP() pap.Level { return m.PAPValue }

// LookupOwner implements services.OwnerLookup.
func (m *MockOwner) LookupOwner(ctx context.Context, ip string) (string, error) {
	if m.LookupOwnerFn != nil {
		return m.LookupOwnerFn(ctx, ip)
	}
	return "MOCK-OWNER", nil
}

// MockExchanger implements resolver.Exchanger for testing.
// A nil ExchangeFn answers every question with an empty NOERROR reply.
type MockExchanger struct {
	ExchangeFn func(ctx context.Context, m *dns.Msg) (*dns.Msg, error)
}

var _ resolver.Exchanger = (*MockExchanger)(nil)

// Exchange implements resolver.Exchanger.
func (m *MockExchanger) Exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	if m.ExchangeFn != nil {
		return m.ExchangeFn(ctx, msg)
	}
	return Reply(msg, dns.RcodeSuccess), nil
}

// Reply builds a response to req with the given rcode and answer records.
func Reply(req *dns.Msg, rcode int, answers ...dns.RR) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetRcode(req, rcode)
	resp.Answer = append(resp.Answer, answers...)
	return resp
}

// RR parses a zone-file style record, failing the test on error.
func RR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	if err != nil {
		t.Fatalf("parsing RR %q: %v", s, err)
	}
	return rr
}

// StartDNSServer runs an in-process UDP DNS server on 127.0.0.1 and returns
// its address. The server is shut down when the test ends.
func StartDNSServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening for DNS: %v", err)
	}
	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
