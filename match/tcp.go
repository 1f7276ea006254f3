package match

import (
	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

// Options tunes the TCP matcher's tolerance.
type Options struct {
	// MaxDistance is how many TTL hops a signature may be "too high" by
	// and still count as an exact match; a larger gap demotes the match to
	// fuzzy-TTL rather than rejecting it.
	MaxDistance int
}

// DefaultOptions mirrors p0f's own default TTL fuzz tolerance.
var DefaultOptions = Options{MaxDistance: 35}

func layoutsEqual(a, b []quirks.OptionCode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// signaturesMatch compares a single database TCP signature against an
// extracted feature vector, returning the match type achieved or false if
// they don't match at all. It follows pyp0f's signatures_match exactly,
// including the specific set of quirk differences tolerated under fuzzy
// matching ('df'/'id+' disappearing, or 'id-'/'ecn' appearing).
func signaturesMatch(sig database.TCPSignature, f netpkt.TCPFeatures, mult Multiplier, opts Options) (TCPMatchType, bool) {
	matchType := TCPExact

	if !layoutsEqual(sig.Options.Layout, f.Layout) {
		return 0, false
	}

	sigQuirks := sig.Quirks
	if sig.IPVersion == database.Wildcard {
		if f.IPVersion == quirks.IPv4 {
			sigQuirks = sigQuirks.Without(quirks.Set(0).With(quirks.Flow))
		} else {
			sigQuirks = sigQuirks.Without(quirks.Set(0).With(quirks.DF).With(quirks.NZID).With(quirks.ZeroID))
		}
	}

	if sigQuirks != f.Quirks {
		diff := quirks.Set(sigQuirks ^ f.Quirks)
		deleted := diff & sigQuirks
		added := diff & f.Quirks

		allowedDeleted := quirks.Set(0).With(quirks.DF).With(quirks.NZID)
		allowedAdded := quirks.Set(0).With(quirks.ZeroID).With(quirks.ECN)

		if deleted.Without(allowedDeleted) != 0 || added.Without(allowedAdded) != 0 {
			return 0, false
		}
		matchType = TCPFuzzyQuirks
	}

	if sig.Options.EOLPaddingLength != f.EOLPadLen || sig.IPOptionsLength != f.OptionsLen {
		return 0, false
	}

	ttl := int(f.TTL)
	if sig.IsBadTTL {
		if sig.TTL < ttl {
			return 0, false
		}
	} else if sig.TTL < ttl || sig.TTL-ttl > opts.MaxDistance {
		matchType = TCPFuzzyTTL
	}

	payloadClass := 0
	if f.PayloadLen > 0 {
		payloadClass = 1
	}
	if sig.MSS != database.Wildcard && sig.MSS != int(f.MSS) {
		return 0, false
	}
	if sig.Window.Scale != database.Wildcard && sig.Window.Scale != int(f.WindowScale) {
		return 0, false
	}
	if sig.PayloadClass != database.Wildcard && sig.PayloadClass != payloadClass {
		return 0, false
	}

	switch sig.Window.Type {
	case database.WindowNormal:
		if sig.Window.Size != int(f.Window) {
			return 0, false
		}
	case database.WindowMod:
		if sig.Window.Size == 0 || int(f.Window)%sig.Window.Size != 0 {
			return 0, false
		}
	case database.WindowMSS:
		if mult.IsMTU || sig.Window.Size != mult.Value {
			return 0, false
		}
	case database.WindowMTU:
		if !mult.IsMTU || sig.Window.Size != mult.Value {
			return 0, false
		}
	}

	return matchType, true
}

// FindTCPMatch searches the direction's TCP records, preferring the first
// non-generic exact match; failing that, the first generic exact match;
// failing that, the first fuzzy match — unless that fuzzy match's label is
// a user-app ("!") one, in which case no match is reported at all.
func FindTCPMatch(store *database.Store, dir netpkt.Direction, f netpkt.TCPFeatures, mult Multiplier, opts Options) (TCPMatch, bool) {
	var genericMatch, fuzzyMatch *TCPMatch

	for _, r := range store.TCP[dir] {
		mt, ok := signaturesMatch(r.Signature, f, mult, opts)
		if !ok {
			continue
		}
		m := TCPMatch{Type: mt, Record: r}

		if mt == TCPExact {
			if !r.IsGeneric() {
				return m, true
			}
			if genericMatch == nil {
				genericMatch = &m
			}
		} else if fuzzyMatch == nil {
			fuzzyMatch = &m
		}
	}

	if genericMatch != nil {
		return *genericMatch, true
	}
	if fuzzyMatch != nil {
		if fuzzyMatch.Record.Label.IsUserApp() {
			return TCPMatch{}, false
		}
		return *fuzzyMatch, true
	}
	return TCPMatch{}, false
}

// GuessDistance estimates the TTL distance to the remote host from one of
// the standard initial TTL values {32, 64, 128, 255}, used when no match
// (or only a fuzzy-TTL match) pins down the sender's actual starting TTL.
func GuessDistance(ttl uint8) int {
	for _, initial := range []int{32, 64, 128} {
		if int(ttl) <= initial {
			return initial - int(ttl)
		}
	}
	return 255 - int(ttl)
}

// TCPDistance returns the matched record's declared TTL distance, or a
// guessed one when there's no match or only a fuzzy-TTL one.
func TCPDistance(m TCPMatch, matched bool, ttl uint8) int {
	if !matched || m.Type == TCPFuzzyTTL {
		return GuessDistance(ttl)
	}
	return m.Record.Signature.TTL - int(ttl)
}
