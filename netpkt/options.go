package netpkt

import (
	"encoding/binary"

	"github.com/passive-fp/p0f/quirks"
)

// Options is the result of walking a TCP option-byte region (spec §4.B).
// Missing fields default to zero, matching p0f's own convention: a missing
// MSS/window-scale/EOL-padding is indistinguishable from an explicit zero.
type Options struct {
	Layout        []quirks.OptionCode
	MSS           uint16
	WindowScale   uint8
	TimestampSelf uint32
	TimestampPeer uint32
	EOLPadLen     int
	Quirks        quirks.Set
}

// ParseOptions walks the raw TCP option bytes and derives the layout plus
// option-related quirks, following spec §4.B exactly: EOL stops the walk
// and records any non-zero padding; NOP is length-less; SACK requires a
// 10..34 byte length; WS/TS/MSS/SACKOK have fixed expected lengths (a
// mismatch sets OptBad but parsing continues at the declared length);
// unknown codes require a 2..40 byte length.
func ParseOptions(buf []byte, isSYN bool) Options {
	var opts Options
	end := len(buf)
	i := 0

	for i < end {
		code := quirks.OptionCode(buf[i])
		opts.Layout = append(opts.Layout, code)
		i++

		switch code {
		case quirks.OptEOL:
			opts.EOLPadLen = end - i
			for i < end && buf[i] == 0 {
				i++
			}
			if i != end {
				opts.Quirks.Add(quirks.OptEOLNonZero)
			}
			return opts

		case quirks.OptNOP:
			continue
		}

		if i == end {
			opts.Quirks.Add(quirks.OptBad)
			return opts
		}
		length := int(buf[i])
		optEnd := i - 1 + length
		i++

		if optEnd > end {
			opts.Quirks.Add(quirks.OptBad)
			return opts
		}

		switch code {
		case quirks.OptSACK:
			if length < 10 || length > 34 {
				opts.Quirks.Add(quirks.OptBad)
				return opts
			}

		case quirks.OptMSS:
			if length != 4 {
				opts.Quirks.Add(quirks.OptBad)
			} else {
				opts.MSS = binary.BigEndian.Uint16(buf[i:optEnd])
			}

		case quirks.OptWS:
			if length != 3 {
				opts.Quirks.Add(quirks.OptBad)
			} else {
				opts.WindowScale = buf[i]
				if opts.WindowScale > 14 {
					opts.Quirks.Add(quirks.OptExcessiveWS)
				}
			}

		case quirks.OptSACKOK:
			if length != 2 {
				opts.Quirks.Add(quirks.OptBad)
			}

		case quirks.OptTS:
			if length != 10 {
				opts.Quirks.Add(quirks.OptBad)
			} else {
				opts.TimestampSelf = binary.BigEndian.Uint32(buf[i : i+4])
				opts.TimestampPeer = binary.BigEndian.Uint32(buf[i+4 : i+8])
				if opts.TimestampSelf == 0 {
					opts.Quirks.Add(quirks.OptZeroTS1)
				}
				if opts.TimestampPeer != 0 && isSYN {
					opts.Quirks.Add(quirks.OptNZTS2)
				}
			}

		default:
			if length < 2 || length > 40 {
				opts.Quirks.Add(quirks.OptBad)
				return opts
			}
		}

		i = optEnd
	}

	return opts
}

// OptionValue carries the concrete value to encode for a single option in
// EncodeOptions; only the fields relevant to Code are consulted.
type OptionValue struct {
	Code        quirks.OptionCode
	MSS         uint16
	WindowScale uint8
	TSSelf      uint32
	TSPeer      uint32
	SACK        []byte
}

// EncodeOptions is the inverse of ParseOptions: it renders a concrete list
// of option values into the raw byte region a packet would carry, the way
// the impersonator needs to so that a subsequent ParseOptions call
// reproduces the intended layout and values. Non-zero IPv4-style EOL
// padding is not supported (see DESIGN.md) — an EOL entry always encodes
// as a single zero byte.
func EncodeOptions(values []OptionValue) []byte {
	buf := make([]byte, 0, 40)
	for _, v := range values {
		switch v.Code {
		case quirks.OptEOL:
			buf = append(buf, byte(quirks.OptEOL))
		case quirks.OptNOP:
			buf = append(buf, byte(quirks.OptNOP))
		case quirks.OptMSS:
			buf = append(buf, byte(quirks.OptMSS), 4, 0, 0)
			binary.BigEndian.PutUint16(buf[len(buf)-2:], v.MSS)
		case quirks.OptWS:
			buf = append(buf, byte(quirks.OptWS), 3, v.WindowScale)
		case quirks.OptSACKOK:
			buf = append(buf, byte(quirks.OptSACKOK), 2)
		case quirks.OptTS:
			head := len(buf)
			buf = append(buf, byte(quirks.OptTS), 10, 0, 0, 0, 0, 0, 0, 0, 0)
			binary.BigEndian.PutUint32(buf[head+2:head+6], v.TSSelf)
			binary.BigEndian.PutUint32(buf[head+6:head+10], v.TSPeer)
		case quirks.OptSACK:
			buf = append(buf, byte(quirks.OptSACK), byte(2+len(v.SACK)))
			buf = append(buf, v.SACK...)
		default:
			buf = append(buf, byte(v.Code), byte(2+len(v.SACK)))
			buf = append(buf, v.SACK...)
		}
	}
	return buf
}
