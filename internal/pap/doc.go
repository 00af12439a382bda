// Package pap implements the Permissible Actions Protocol (PAP) classification
// used to decide how actively a probe may interact with or expose a target.
//
// Levels in ascending order of activity:
//
//	RED:   non-detectable (offline databases)
//	AMBER: detectable but not directly attributable (RDAP, Team Cymru)
//	GREEN: direct interaction with the target (DNS resolution, TLS handshake)
//	WHITE: unrestricted
//
// The user sets --pap-limit; a probe is skipped when its level exceeds the limit.
package pap
