package netpkt

import "github.com/passive-fp/p0f/quirks"

// TCPFeatures is the feature vector component B extracts from a single
// eligible packet, ready to be compared against a database.TCPSignature by
// the matcher (component F). It deliberately stays a netpkt type rather
// than a database type: extraction only ever needs the packet, never the
// signature database.
type TCPFeatures struct {
	Direction   Direction
	IPVersion   quirks.IPVersion
	TTL         uint8
	OptionsLen  int
	Layout      []quirks.OptionCode
	Quirks      quirks.Set
	MSS         uint16
	Window      uint16
	WindowScale uint8
	EOLPadLen   int
	PayloadLen  int
}

// ExtractTCPSignature derives the feature vector for pkt, which must have
// already passed pkt.ShouldFingerprint(); ErrShouldSkip is returned
// otherwise so callers cannot accidentally fingerprint a filtered packet.
func ExtractTCPSignature(pkt Packet, dir Direction) (TCPFeatures, error) {
	if !pkt.ShouldFingerprint() {
		return TCPFeatures{}, ErrShouldSkip
	}

	isSYN := pkt.TCP.Type() == FlagSYN
	opts := ParseOptions(pkt.TCP.Options, isSYN)

	f := TCPFeatures{
		Direction:   dir,
		IPVersion:   pkt.IP.Version,
		TTL:         pkt.IP.TTL,
		OptionsLen:  pkt.IP.OptionsLength(),
		Layout:      opts.Layout,
		MSS:         opts.MSS,
		Window:      pkt.TCP.Window,
		WindowScale: opts.WindowScale,
		EOLPadLen:   opts.EOLPadLen,
		PayloadLen:  len(pkt.TCP.Payload),
	}

	f.Quirks = ExtractIPQuirks(pkt.IP).Union(ExtractTCPQuirks(pkt.TCP)).Union(opts.Quirks)
	return f, nil
}

// tosECNMask isolates the congestion-encountered and ECN-capable-transport
// bits of the TOS/traffic-class byte (IP_TOS_CE|IP_TOS_ECT in pyp0f).
const tosECNMask = 0x01 | 0x02

// ExtractIPQuirks derives the IP-header-level quirks of §4.B, grounded on
// pyp0f's IP.quirks property: ECN on the congestion-experienced/ECT bits,
// DF itself, DF with a simultaneously non-zero ID (id+), a zero ID with DF
// clear (id-), a non-zero "must be zero" field, and,
// for IPv6, a non-zero flow label and ECN on the traffic-class byte.
func ExtractIPQuirks(ip IP) quirks.Set {
	var s quirks.Set

	switch ip.Version {
	case quirks.IPv4:
		if ip.TOS&tosECNMask != 0 {
			s.Add(quirks.ECN)
		}
		if ip.DF {
			if ip.ID != 0 {
				s.Add(quirks.NZID)
			}
		} else if ip.ID == 0 {
			s.Add(quirks.ZeroID)
		}
		if ip.Reserved {
			s.Add(quirks.NZMBZ)
		}
		if ip.DF {
			s.Add(quirks.DF)
		}
	case quirks.IPv6:
		if ip.FlowLabel != 0 {
			s.Add(quirks.Flow)
		}
		if ip.TOS&tosECNMask != 0 {
			s.Add(quirks.ECN)
		}
	}

	return s
}

// ExtractTCPQuirks derives the TCP-header-level quirks of §4.B: ECN on the
// ECE/CWR/NS control bits, a zero sequence number, a non-zero ACK number
// with ACK unset, a zero ACK number with ACK set, a non-zero urgent
// pointer without URG, the URG flag itself, and the PSH flag.
func ExtractTCPQuirks(tcp TCP) quirks.Set {
	var s quirks.Set

	if tcp.Flags.Any(FlagECE | FlagCWR | FlagNS) {
		s.Add(quirks.ECN)
	}

	if tcp.Seq == 0 {
		s.Add(quirks.ZeroSeq)
	}

	ackSet := tcp.Flags.Has(FlagACK)
	if !ackSet && tcp.Ack != 0 {
		s.Add(quirks.NZAck)
	}
	if ackSet && tcp.Ack == 0 {
		s.Add(quirks.ZeroAck)
	}

	urgSet := tcp.Flags.Has(FlagURG)
	if !urgSet && tcp.UrgPtr != 0 {
		s.Add(quirks.NZUrg)
	}
	if urgSet {
		s.Add(quirks.Urg)
	}
	if tcp.Flags.Has(FlagPSH) {
		s.Add(quirks.Push)
	}

	return s
}
