// Package netpkt defines the typed packet contract the fingerprinting core
// consumes (§6.3) and the feature extractor that reduces it to a TCP
// signature (component B). It does not parse raw wire bytes into IP/TCP
// header fields — that is the job of an external collaborator (see
// gopacketadapter) — but it does walk the raw TCP option-byte region,
// since that walk is part of the core's own job per spec §4.B.
package netpkt

import (
	"net"

	"github.com/passive-fp/p0f/quirks"
)

// Direction classifies which side of a connection produced a signature.
type Direction uint8

const (
	ClientToServer Direction = iota
	ServerToClient
)

func (d Direction) String() string {
	if d == ServerToClient {
		return "response"
	}
	return "request"
}

// TCPFlags is a bitset over the TCP control bits relevant to fingerprinting.
type TCPFlags uint16

const (
	FlagFIN TCPFlags = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
	FlagECE
	FlagCWR
	FlagNS
)

// Has reports whether all bits of mask are set in f.
func (f TCPFlags) Has(mask TCPFlags) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is set in f.
func (f TCPFlags) Any(mask TCPFlags) bool {
	return f&mask != 0
}

// typeMask isolates the SYN/ACK/FIN/RST subset the core cares about.
const typeMask = FlagSYN | FlagACK | FlagFIN | FlagRST

// IP carries the IPv4/IPv6 header fields the core needs, already decoded
// by an external collaborator (see gopacketadapter for one such adapter).
type IP struct {
	Version      quirks.IPVersion
	Src, Dst     net.IP
	TTL          uint8 // hop limit, for IPv6
	TOS          uint8 // traffic class, for IPv6
	HeaderLength int   // bytes; 20..60 for IPv4, always 40 for IPv6
	DF           bool  // IPv4 only
	MF           bool  // IPv4 only
	FragOffset   uint16
	ID           uint16 // IPv4 only
	Reserved     bool   // the "evil"/must-be-zero bit, IPv4 only
	FlowLabel    uint32 // IPv6 only
}

// IsFragment implements the §3.1 rule: MF or non-zero fragment offset on
// IPv4; always false on IPv6 (no fragmentation header modeled here).
func (ip IP) IsFragment() bool {
	if ip.Version == quirks.IPv6 {
		return false
	}
	return ip.MF || ip.FragOffset != 0
}

// OptionsLength is header_length-20 on IPv4, always 0 on IPv6.
func (ip IP) OptionsLength() int {
	if ip.Version == quirks.IPv6 {
		return 0
	}
	n := ip.HeaderLength - 20
	if n < 0 {
		return 0
	}
	return n
}

// TCP carries the TCP header fields the core needs. Options is the raw
// option-byte region (HeaderLength-20 bytes); walking it is component B's
// job, done by ParseOptions.
type TCP struct {
	SrcPort, DstPort uint16
	Seq, Ack         uint32
	Flags            TCPFlags
	Window           uint16
	UrgPtr           uint16
	HeaderLength     int // bytes, data-offset * 4
	Options          []byte
	Payload          []byte
}

// Type returns the SYN/ACK/FIN/RST subset of Flags relevant to the core.
func (t TCP) Type() TCPFlags {
	return t.Flags & typeMask
}

// Packet is the parsed IPv4/IPv6 + TCP packet the core consumes.
type Packet struct {
	IP  IP
	TCP TCP
}

// ShouldFingerprint implements the §3.1 invariant: not fragmented, and the
// flag combination isn't one of the silly ones (none, SYN+FIN, SYN+RST,
// FIN+RST).
func (p Packet) ShouldFingerprint() bool {
	if p.IP.IsFragment() {
		return false
	}
	t := p.TCP.Type()
	if t == 0 {
		return false
	}
	switch t {
	case FlagSYN | FlagFIN, FlagSYN | FlagRST, FlagFIN | FlagRST:
		return false
	}
	return true
}
