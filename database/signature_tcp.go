package database

import (
	"strconv"
	"strings"

	"github.com/passive-fp/p0f/quirks"
)

// WindowType classifies how a TCP signature's window-size field is to be
// matched: a literal value, any value, a modulus, or a multiple of the
// observed MSS/MTU (see match.ComputeWindowMultiplier).
type WindowType uint8

const (
	WindowNormal WindowType = iota
	WindowAny
	WindowMod
	WindowMSS
	WindowMTU
)

// WindowSignature is the "window,scale" field of a TCP signature.
type WindowSignature struct {
	Type  WindowType
	Size  int // meaning depends on Type; Wildcard when Type == WindowAny
	Scale int // Wildcard for "don't care"
}

// OptionsSignature is the "options" field of a TCP signature: the ordered
// option-kind layout and the expected EOL padding length when the layout
// ends in eol+N. The expected MSS value is kept on TCPSignature.MSS.
type OptionsSignature struct {
	Layout          []quirks.OptionCode
	EOLPaddingLength int
}

// TCPSignature is the parsed form of a [tcp] section's "sig=" value.
type TCPSignature struct {
	IPVersion       int // quirks.IPv4, quirks.IPv6, or Wildcard
	IPOptionsLength int
	TTL             int
	IsBadTTL        bool

	Window  WindowSignature
	Options OptionsSignature
	MSS     int // Wildcard for "don't care"

	PayloadClass int // 0, 1 ("+"), or Wildcard
	Quirks       quirks.Set
}

// ParseTCPSignature parses a "sig=" value in a [tcp] section, following the
// eight colon-separated fields: ip_version:ttl:ip_opt_len:mss:window,scale:
// options:quirks:payload_class.
func ParseTCPSignature(raw string) (TCPSignature, error) {
	f := splitParts(raw, 8, ":")
	rawVersion, rawTTL, rawOptLen, rawMSS, rawWindow, rawOptions, rawQuirks, rawPayload := f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7]

	ipVersion, err := parseIPVersionField(rawVersion)
	if err != nil {
		return TCPSignature{}, err
	}
	ttl, badTTL, err := parseTTLField(rawTTL)
	if err != nil {
		return TCPSignature{}, err
	}
	optLen, err := parseIntInRange(rawOptLen, "ip_opt_len", 0, 255, false)
	if err != nil {
		return TCPSignature{}, err
	}
	mss, err := parseIntInRange(rawMSS, "mss", 0, 65535, true)
	if err != nil {
		return TCPSignature{}, err
	}
	window, err := parseWindowField(rawWindow)
	if err != nil {
		return TCPSignature{}, err
	}
	options, err := parseOptionsField(rawOptions)
	if err != nil {
		return TCPSignature{}, err
	}
	q, err := parseQuirksField(rawQuirks, ipVersion)
	if err != nil {
		return TCPSignature{}, err
	}
	payload, err := parsePayloadClassField(rawPayload)
	if err != nil {
		return TCPSignature{}, err
	}

	return TCPSignature{
		IPVersion:       ipVersion,
		IPOptionsLength: optLen,
		TTL:             ttl,
		IsBadTTL:        badTTL,
		Window:          window,
		Options:         options,
		MSS:             mss,
		PayloadClass:    payload,
		Quirks:          q,
	}, nil
}

func parseIPVersionField(field string) (int, error) {
	switch {
	case IsWildcardField(field):
		return Wildcard, nil
	case field == "4":
		return int(quirks.IPv4), nil
	case field == "6":
		return int(quirks.IPv6), nil
	default:
		return 0, &FieldError{Field: "ip_version", Msg: "must be 4, 6 or *, got " + field}
	}
}

// parseTTLField handles the three TTL field forms: "ttl", "ttl+dist" and
// "ttl-" (ttl unreliable, any value within reach is acceptable downstream).
func parseTTLField(field string) (ttl int, isBad bool, err error) {
	raw := field
	dist := 0

	if strings.HasSuffix(raw, "-") {
		isBad = true
		raw = strings.TrimSuffix(raw, "-")
	} else if i := strings.IndexByte(raw, '+'); i >= 0 {
		d, derr := strconv.Atoi(raw[i+1:])
		if derr != nil {
			return 0, false, &FieldError{Field: "ttl", Msg: "bad distance in " + field}
		}
		dist = d
		raw = raw[:i]
	}

	base, err := parseIntInRange(raw, "ttl", 1, 255, false)
	if err != nil {
		return 0, false, err
	}
	ttl = base + dist
	if dist < 0 || ttl > 255 {
		return 0, false, &FieldError{Field: "ttl", Msg: "distance puts ttl out of range: " + field}
	}
	return ttl, isBad, nil
}

func parseWindowField(field string) (WindowSignature, error) {
	rawWindow, rawScale, _ := strings.Cut(field, ",")

	var (
		typ  WindowType
		size int
		err  error
	)

	switch {
	case IsWildcardField(rawWindow):
		typ, size = WindowAny, Wildcard
	case strings.HasPrefix(rawWindow, "mss*"):
		typ = WindowMSS
		size, err = parseIntInRange(rawWindow[4:], "window", 1, 1000, false)
	case strings.HasPrefix(rawWindow, "mtu*"):
		typ = WindowMTU
		size, err = parseIntInRange(rawWindow[4:], "window", 1, 1000, false)
	case strings.HasPrefix(rawWindow, "%"):
		typ = WindowMod
		size, err = parseIntInRange(rawWindow[1:], "window", 2, 65535, false)
	default:
		typ = WindowNormal
		size, err = parseIntInRange(rawWindow, "window", 0, 65535, false)
	}
	if err != nil {
		return WindowSignature{}, err
	}

	scale, err := parseIntInRange(rawScale, "window_scale", 0, 255, true)
	if err != nil {
		return WindowSignature{}, err
	}

	return WindowSignature{Type: typ, Size: size, Scale: scale}, nil
}

func parseOptionsField(field string) (OptionsSignature, error) {
	var sig OptionsSignature
	if field == "" {
		return sig, nil
	}

	for _, raw := range strings.Split(field, ",") {
		switch {
		case strings.HasPrefix(raw, "?"):
			n, err := parseIntInRange(raw[1:], "options", 0, 255, false)
			if err != nil {
				return OptionsSignature{}, err
			}
			sig.Layout = append(sig.Layout, quirks.OptionCode(n))

		case strings.HasPrefix(raw, "eol+"):
			n, err := parseIntInRange(raw[4:], "options", 0, 255, false)
			if err != nil {
				return OptionsSignature{}, err
			}
			sig.Layout = append(sig.Layout, quirks.OptEOL)
			sig.EOLPaddingLength = n

		default:
			code, ok := parseOptionToken(raw)
			if !ok {
				return OptionsSignature{}, &FieldError{Field: "options", Msg: "unrecognized option token " + strconv.Quote(raw)}
			}
			sig.Layout = append(sig.Layout, code)
		}
	}

	return sig, nil
}

var optionTokenToCode = map[string]quirks.OptionCode{
	"nop":  quirks.OptNOP,
	"mss":  quirks.OptMSS,
	"ws":   quirks.OptWS,
	"sok":  quirks.OptSACKOK,
	"sack": quirks.OptSACK,
	"ts":   quirks.OptTS,
}

func parseOptionToken(raw string) (quirks.OptionCode, bool) {
	c, ok := optionTokenToCode[raw]
	return c, ok
}

func parseQuirksField(field string, ipVersion int) (quirks.Set, error) {
	var s quirks.Set
	if field == "" {
		return s, nil
	}

	var invalid quirks.Set
	switch ipVersion {
	case int(quirks.IPv4):
		invalid = quirks.InvalidFor(quirks.IPv4)
	case int(quirks.IPv6):
		invalid = quirks.InvalidFor(quirks.IPv6)
	}

	for _, raw := range strings.Split(field, ",") {
		q, ok := quirks.Parse(raw)
		if !ok {
			return 0, &FieldError{Field: "quirks", Msg: "unrecognized quirk token " + strconv.Quote(raw)}
		}
		if invalid.Has(q) {
			return 0, &FieldError{Field: "quirks", Msg: "quirk " + raw + " is invalid for this IP version"}
		}
		s.Add(q)
	}
	return s, nil
}

func parsePayloadClassField(field string) (int, error) {
	switch field {
	case "0":
		return 0, nil
	case "+":
		return 1, nil
	case "*":
		return Wildcard, nil
	default:
		return 0, &FieldError{Field: "payload_class", Msg: "must be 0, + or *, got " + field}
	}
}
