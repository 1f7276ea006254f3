// Package match implements the MTU/TCP/HTTP signature matchers (components
// E, F, H, I): fuzzy-tolerant signature comparison against a loaded
// database, the specific-over-generic record preference, and the window
// multiplier solver the TCP matcher depends on.
//
// Fuzzy matching is deliberately never attempted for a "!" (user-app)
// label: a generic userland-tool signature is treated as unreliable enough
// that an approximate match isn't worth reporting. This mirrors upstream
// p0f and is a deployment-relevant choice, not an oversight — see
// SPEC_FULL.md §6.
package match

import (
	"github.com/passive-fp/p0f/database"
)

// TCPMatchType classifies how closely a TCP signature matched.
type TCPMatchType uint8

const (
	TCPExact TCPMatchType = iota
	TCPFuzzyTTL
	TCPFuzzyQuirks
)

// TCPMatch is a successful TCP signature match.
type TCPMatch struct {
	Type   TCPMatchType
	Record database.TCPRecord
}

// IsFuzzy reports whether the match required any tolerance.
func (m TCPMatch) IsFuzzy() bool {
	return m.Type != TCPExact
}

// MTUMatch is a successful MTU signature match.
type MTUMatch struct {
	Record database.MTURecord
}

// HTTPMatchType classifies how closely an HTTP signature matched.
type HTTPMatchType uint8

const (
	HTTPExact HTTPMatchType = iota
	HTTPDishonest
)

// HTTPMatch is a successful HTTP signature match. Dishonest means the
// signature matched structurally but the observed software string
// contradicts the one the signature expects (§4.H).
type HTTPMatch struct {
	Type   HTTPMatchType
	Record database.HTTPRecord
}

func (m HTTPMatch) IsDishonest() bool {
	return m.Type == HTTPDishonest
}
