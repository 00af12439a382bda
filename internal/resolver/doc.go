// Package resolver builds the DNS and TCP transports used by the probes.
//
// Everything is derived from the system resolver configuration. When the user
// configures a socks5:// proxy, DNS queries and TLS dials are tunnelled
// through it to prevent leaks to the local network.
package resolver
