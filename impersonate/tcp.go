// Package impersonate synthesizes packets that a fingerprinting engine
// built on this module's database would classify as a chosen label or raw
// signature (spec §4.J). It mutates a copy of an observed packet rather
// than building one from nothing, so that fields the signature leaves as
// "don't care" keep plausible values instead of zeros.
package impersonate

import (
	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

const maxTimestamp = 100 * 60 * 60 * 24 * 365

// TCPOptions configures ImpersonateTCP.
type TCPOptions struct {
	// MTU is used to size a WindowMTU signature's window; 0 means 1500.
	MTU int
	// ExtraHops is subtracted from the signature's declared TTL, to model
	// the packet having already crossed this many hops since the sender.
	ExtraHops int
	// Uptime, when set, overrides the synthesized own TCP timestamp.
	Uptime *uint32
	// Rand supplies the randomness for every field the signature leaves
	// wildcarded. Required.
	Rand Rand
}

// ImpersonateTCP returns a copy of pkt mutated to match sig, following
// pyp0f's impersonate/tcp.py field-by-field: IP header, option layout and
// values, window, control flags, and payload presence.
func ImpersonateTCP(pkt netpkt.Packet, sig database.TCPSignature, opts TCPOptions) (netpkt.Packet, error) {
	if sig.IPVersion != database.Wildcard && quirks.IPVersion(sig.IPVersion) != pkt.IP.Version {
		return netpkt.Packet{}, &Error{Msg: "can't convert between IPv4 and IPv6"}
	}
	if sig.Options.EOLPaddingLength != 0 {
		return netpkt.Packet{}, &Error{Msg: "eol+N padding is not supported for impersonation"}
	}
	if pkt.IP.Version == quirks.IPv4 && sig.IPOptionsLength != 0 {
		return netpkt.Packet{}, &Error{Msg: "non-zero IPv4 options are not supported for impersonation"}
	}
	if opts.Rand == nil {
		return netpkt.Packet{}, &Error{Msg: "Rand is required"}
	}

	mtu := opts.MTU
	if mtu == 0 {
		mtu = 1500
	}

	out := pkt
	impersonateIP(&out.IP, sig, opts.ExtraHops, opts.Rand)

	values := impersonateOptions(out.TCP, sig, opts.Uptime, opts.Rand)
	out.TCP.Options = netpkt.EncodeOptions(values)
	out.TCP.HeaderLength = 20 + len(out.TCP.Options)

	if err := impersonateWindow(&out.TCP, sig, values, mtu, opts.Rand); err != nil {
		return netpkt.Packet{}, err
	}
	impersonateFlags(&out.TCP, sig, opts.Rand)
	impersonatePayload(&out.TCP, sig, opts.Rand)

	return out, nil
}

func impersonateIP(ip *netpkt.IP, sig database.TCPSignature, extraHops int, rnd Rand) {
	ip.TTL = uint8(sig.TTL - extraHops)

	if ip.Version == quirks.IPv4 {
		ip.HeaderLength = 20

		if sig.Quirks.Has(quirks.DF) {
			ip.DF = true
			if sig.Quirks.Has(quirks.NZID) {
				if ip.ID == 0 {
					ip.ID = uint16(randRange(rnd, 1, 1<<16))
				}
			} else {
				ip.ID = 0
			}
		} else {
			ip.DF = false
			if sig.Quirks.Has(quirks.ZeroID) {
				ip.ID = 0
			} else if ip.ID == 0 {
				ip.ID = uint16(randRange(rnd, 1, 1<<16))
			}
		}

		if sig.Quirks.Has(quirks.ECN) {
			ip.TOS |= byte(randRange(rnd, 0x01, 0x04))
		}

		ip.Reserved = sig.Quirks.Has(quirks.NZMBZ)
		return
	}

	ip.HeaderLength = 40
	if sig.Quirks.Has(quirks.Flow) {
		ip.FlowLabel = uint32(randRange(rnd, 1, 1<<20))
	}
	if sig.Quirks.Has(quirks.ECN) {
		ip.TOS |= byte(randRange(rnd, 0x01, 0x04))
	}
}

// impersonateOptions renders the signature's option layout into concrete
// values, using the packet's own pre-mutation options as hints (a present,
// in-range value is kept; an absent or out-of-range one is replaced)
// exactly the way pyp0f reuses the original packet's option values before
// overwriting them. A present option whose hint value happens to be zero
// is treated the same as an absent one, matching this module's general
// "a missing field and an explicit zero look the same" convention
// (see netpkt.Options) rather than carrying a separate validity flag.
func impersonateOptions(tcp netpkt.TCP, sig database.TCPSignature, uptimeOverride *uint32, rnd Rand) []netpkt.OptionValue {
	isSYN := tcp.Flags.Has(netpkt.FlagSYN) && !tcp.Flags.Has(netpkt.FlagACK)
	hints := netpkt.ParseOptions(tcp.Options, isSYN)

	var values []netpkt.OptionValue
	for _, code := range sig.Options.Layout {
		switch code {
		case quirks.OptMSS:
			values = append(values, netpkt.OptionValue{Code: quirks.OptMSS, MSS: uint16(impersonateMSS(sig, hints, rnd))})

		case quirks.OptWS:
			values = append(values, netpkt.OptionValue{Code: quirks.OptWS, WindowScale: uint8(impersonateWindowScale(sig, hints, rnd))})

		case quirks.OptTS:
			ts1, ts2 := impersonateTimestamps(sig, hints, uptimeOverride, isSYN, rnd)
			values = append(values, netpkt.OptionValue{Code: quirks.OptTS, TSSelf: ts1, TSPeer: ts2})

		case quirks.OptNOP:
			values = append(values, netpkt.OptionValue{Code: quirks.OptNOP})

		case quirks.OptSACKOK:
			values = append(values, netpkt.OptionValue{Code: quirks.OptSACKOK})

		case quirks.OptSACK:
			totalLen := 10 + 8*rnd.Intn(4) // one of 10, 18, 26, 34
			values = append(values, netpkt.OptionValue{Code: quirks.OptSACK, SACK: make([]byte, totalLen-2)})

		case quirks.OptEOL:
			values = append(values, netpkt.OptionValue{Code: quirks.OptEOL})

		default:
			// Numeric codes outside the named set (a database "?N" entry)
			// have no known value to synthesize and are dropped.
		}
	}

	return values
}

func impersonateMSS(sig database.TCPSignature, hints netpkt.Options, rnd Rand) int {
	divisor := 1
	if sig.Window.Type == database.WindowMSS && sig.Window.Size > 0 {
		divisor = sig.Window.Size
	}
	maxMSS := (1 << 16) / divisor

	if sig.MSS != database.Wildcard {
		return sig.MSS
	}
	if hints.MSS != 0 && int(hints.MSS) <= maxMSS {
		return int(hints.MSS)
	}
	return randRange(rnd, 100, maxMSS)
}

func impersonateWindowScale(sig database.TCPSignature, hints netpkt.Options, rnd Rand) int {
	if sig.Window.Scale != database.Wildcard {
		return sig.Window.Scale
	}
	if sig.Quirks.Has(quirks.OptExcessiveWS) {
		if hints.WindowScale > 14 {
			return int(hints.WindowScale)
		}
		return randRange(rnd, 15, 256)
	}
	if hints.WindowScale != 0 {
		return int(hints.WindowScale)
	}
	return randRange(rnd, 1, 14)
}

func impersonateTimestamps(sig database.TCPSignature, hints netpkt.Options, uptimeOverride *uint32, isSYN bool, rnd Rand) (ts1, ts2 uint32) {
	switch {
	case sig.Quirks.Has(quirks.OptZeroTS1):
		ts1 = 0
	case uptimeOverride != nil:
		ts1 = *uptimeOverride
	case hints.TimestampSelf != 0:
		ts1 = hints.TimestampSelf
	default:
		ts1 = uint32(randRange(rnd, 120, maxTimestamp+1))
	}

	if sig.Quirks.Has(quirks.OptNZTS2) && isSYN {
		if hints.TimestampPeer != 0 {
			ts2 = hints.TimestampPeer
		} else {
			ts2 = uint32(randRange(rnd, 1, 1<<32))
		}
	}
	return ts1, ts2
}

func impersonateWindow(tcp *netpkt.TCP, sig database.TCPSignature, values []netpkt.OptionValue, mtu int, rnd Rand) error {
	switch sig.Window.Type {
	case database.WindowNormal:
		tcp.Window = uint16(sig.Window.Size)

	case database.WindowMSS:
		mss, ok := mssFromValues(values)
		if !ok {
			return &Error{Msg: "window value requires MSS, and MSS option not set"}
		}
		tcp.Window = uint16(int(mss) * sig.Window.Size)

	case database.WindowMod:
		if sig.Window.Size <= 0 {
			return &Error{Msg: "modulus window size must be positive"}
		}
		tcp.Window = uint16(sig.Window.Size * randRange(rnd, 1, (1<<16)/sig.Window.Size))

	case database.WindowMTU:
		tcp.Window = uint16(mtu * sig.Window.Size)

	case database.WindowAny:
		// leave the packet's own window untouched
	}
	return nil
}

func mssFromValues(values []netpkt.OptionValue) (uint16, bool) {
	for _, v := range values {
		if v.Code == quirks.OptMSS {
			return v.MSS, true
		}
	}
	return 0, false
}

func impersonateFlags(tcp *netpkt.TCP, sig database.TCPSignature, rnd Rand) {
	if sig.Quirks.Has(quirks.ZeroSeq) {
		tcp.Seq = 0
	} else if tcp.Seq == 0 {
		tcp.Seq = uint32(randRange(rnd, 1, 1<<32))
	}

	if sig.Quirks.Has(quirks.NZAck) {
		tcp.Flags &^= netpkt.FlagACK
		if tcp.Ack == 0 {
			tcp.Ack = uint32(randRange(rnd, 1, 1<<32))
		}
	} else if sig.Quirks.Has(quirks.ZeroAck) {
		tcp.Flags |= netpkt.FlagACK
		tcp.Ack = 0
	}

	if sig.Quirks.Has(quirks.NZUrg) {
		tcp.Flags &^= netpkt.FlagURG
		if tcp.UrgPtr == 0 {
			tcp.UrgPtr = uint16(randRange(rnd, 1, 1<<16))
		}
	} else if sig.Quirks.Has(quirks.Urg) {
		tcp.Flags |= netpkt.FlagURG
	}

	if sig.Quirks.Has(quirks.Push) {
		tcp.Flags |= netpkt.FlagPSH
	} else {
		tcp.Flags &^= netpkt.FlagPSH
	}
}

func impersonatePayload(tcp *netpkt.TCP, sig database.TCPSignature, rnd Rand) {
	if sig.PayloadClass == database.Wildcard {
		return
	}
	if sig.PayloadClass == 0 {
		tcp.Payload = nil
		return
	}
	if len(tcp.Payload) == 0 {
		tcp.Payload = randomString(rnd, randRange(rnd, 1, 11))
	}
}
