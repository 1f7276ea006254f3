// Package quirks implements the fixed enumeration of packet/option anomalies
// p0f watches for, and the small set of TCP option codes it recognizes.
package quirks

import "strconv"

// IPVersion identifies the IP protocol version of a packet or signature.
type IPVersion uint8

const (
	IPv4 IPVersion = 4
	IPv6 IPVersion = 6
)

func (v IPVersion) String() string {
	switch v {
	case IPv4:
		return "4"
	case IPv6:
		return "6"
	default:
		return "?"
	}
}

// Quirk identifies a single header or option anomaly.
type Quirk uint8

const (
	// IP quirks
	ECN Quirk = iota
	DF
	NZID
	ZeroID
	NZMBZ
	Flow

	// TCP core quirks
	ZeroSeq
	NZAck
	ZeroAck
	NZUrg
	Urg
	Push

	// TCP option quirks
	OptZeroTS1
	OptNZTS2
	OptEOLNonZero
	OptExcessiveWS
	OptBad

	numQuirks
)

// token is the stable textual representation used in the database grammar.
var token = [numQuirks]string{
	ECN:            "ecn",
	DF:             "df",
	NZID:           "id+",
	ZeroID:         "id-",
	NZMBZ:          "0+",
	Flow:           "flow",
	ZeroSeq:        "seq-",
	NZAck:          "ack+",
	ZeroAck:        "ack-",
	NZUrg:          "uptr+",
	Urg:            "urgf+",
	Push:           "pushf+",
	OptZeroTS1:     "ts1-",
	OptNZTS2:       "ts2+",
	OptEOLNonZero:  "opt+",
	OptExcessiveWS: "exws",
	OptBad:         "bad",
}

// String returns the canonical database token for q, or "?" if q is out of range.
func (q Quirk) String() string {
	if q >= numQuirks {
		return "?"
	}
	return token[q]
}

// Parse resolves a database token to its Quirk, reporting ok=false for an
// unrecognized token.
func Parse(raw string) (q Quirk, ok bool) {
	for i, t := range token {
		if t == raw {
			return Quirk(i), true
		}
	}
	return 0, false
}

// Set is a bitset of Quirks.
type Set uint32

// Has reports whether q is present in s.
func (s Set) Has(q Quirk) bool {
	return s&(1<<q) != 0
}

// With returns s with q added.
func (s Set) With(q Quirk) Set {
	return s | (1 << q)
}

// Add sets q in s in place.
func (s *Set) Add(q Quirk) {
	*s |= 1 << q
}

// Without returns s with the bits of other cleared.
func (s Set) Without(other Set) Set {
	return s &^ other
}

// Union returns the bitwise union of s and other.
func (s Set) Union(other Set) Set {
	return s | other
}

// Empty reports whether s has no quirks set.
func (s Set) Empty() bool {
	return s == 0
}

// String renders s as a comma-separated list of tokens in canonical
// (declaration) order, the same order p0f's own dump routines use.
func (s Set) String() string {
	out := make([]byte, 0, 32)
	first := true
	for q := Quirk(0); q < numQuirks; q++ {
		if !s.Has(q) {
			continue
		}
		if !first {
			out = append(out, ',')
		}
		first = false
		out = append(out, q.String()...)
	}
	return string(out)
}

// invalidIPv4 and invalidIPv6 are the per-version quirk whitelists from
// spec §3.1: "certain quirks are illegal per IP version".
var (
	invalidIPv4 = Set(0).With(Flow)
	invalidIPv6 = Set(0).With(DF).With(NZID).With(ZeroID).With(NZMBZ)
)

// InvalidFor returns the set of quirks that cannot legally appear in a
// signature declared for the given IP version.
func InvalidFor(v IPVersion) Set {
	switch v {
	case IPv4:
		return invalidIPv4
	case IPv6:
		return invalidIPv6
	default:
		return 0
	}
}

// OptionCode is a TCP option kind byte, as carried in the option layout.
// Codes outside the named constants are preserved numerically and rendered
// with a leading '?' (e.g. "?14").
type OptionCode uint8

const (
	OptEOL    OptionCode = 0
	OptNOP    OptionCode = 1
	OptMSS    OptionCode = 2
	OptWS     OptionCode = 3
	OptSACKOK OptionCode = 4
	OptSACK   OptionCode = 5
	OptTS     OptionCode = 8
)

var optionToken = map[OptionCode]string{
	OptNOP:    "nop",
	OptMSS:    "mss",
	OptWS:     "ws",
	OptSACKOK: "sok",
	OptSACK:   "sack",
	OptTS:     "ts",
}

// String renders a non-EOL option code using its canonical token, or
// "?N" for an unrecognized numeric code. EOL is special-cased by callers
// because its textual form carries a padding length (eol+N).
func (c OptionCode) String() string {
	if s, ok := optionToken[c]; ok {
		return s
	}
	return "?" + strconv.Itoa(int(c))
}
