// Package gopacketadapter translates a decoded gopacket.Packet into the
// netpkt.Packet the fingerprinting core consumes. It is the one place in
// this module allowed to import gopacket; netpkt itself stays collaborator
// agnostic (see netpkt's package doc), and packet capture itself is out of
// scope (spec's non-goal) — this package only does layer-to-struct
// translation, the same narrow job zhizhuodemao-fingerprint-collector's
// tcp.go does inline in its capture loop.
package gopacketadapter

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

// FromGopacket builds a netpkt.Packet from a decoded gopacket.Packet. It
// requires an IPv4 or IPv6 layer and a TCP layer, mirroring the
// IPv4Layer/IPv6Layer/TCPLayer probing in
// zhizhuodemao-fingerprint-collector's tls-server/tcp.go.
func FromGopacket(pkt gopacket.Packet) (netpkt.Packet, error) {
	var ip netpkt.IP
	switch {
	case pkt.Layer(layers.LayerTypeIPv4) != nil:
		ip = ipv4ToIP(pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4))
	case pkt.Layer(layers.LayerTypeIPv6) != nil:
		ip = ipv6ToIP(pkt.Layer(layers.LayerTypeIPv6).(*layers.IPv6))
	default:
		return netpkt.Packet{}, netpkt.ErrNoIP
	}

	tcpLayer := pkt.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return netpkt.Packet{}, netpkt.ErrNotTCP
	}

	return netpkt.Packet{IP: ip, TCP: tcpToTCP(tcpLayer.(*layers.TCP))}, nil
}

func ipv4ToIP(ip4 *layers.IPv4) netpkt.IP {
	return netpkt.IP{
		Version:      quirks.IPv4,
		Src:          ip4.SrcIP,
		Dst:          ip4.DstIP,
		TTL:          ip4.TTL,
		TOS:          ip4.TOS,
		HeaderLength: int(ip4.IHL) * 4,
		DF:           ip4.Flags&layers.IPv4DontFragment != 0,
		MF:           ip4.Flags&layers.IPv4MoreFragments != 0,
		FragOffset:   ip4.FragOffset,
		ID:           ip4.Id,
		Reserved:     ip4.Flags&layers.IPv4EvilBit != 0,
	}
}

// ipv6HeaderLength is always 40: the fixed IPv6 header, no extension
// headers modeled here (matching netpkt.IP's own doc on HeaderLength).
const ipv6HeaderLength = 40

func ipv6ToIP(ip6 *layers.IPv6) netpkt.IP {
	return netpkt.IP{
		Version:      quirks.IPv6,
		Src:          ip6.SrcIP,
		Dst:          ip6.DstIP,
		TTL:          ip6.HopLimit,
		TOS:          ip6.TrafficClass,
		HeaderLength: ipv6HeaderLength,
		FlowLabel:    ip6.FlowLabel,
	}
}

func tcpToTCP(tcp *layers.TCP) netpkt.TCP {
	var flags netpkt.TCPFlags
	if tcp.FIN {
		flags |= netpkt.FlagFIN
	}
	if tcp.SYN {
		flags |= netpkt.FlagSYN
	}
	if tcp.RST {
		flags |= netpkt.FlagRST
	}
	if tcp.PSH {
		flags |= netpkt.FlagPSH
	}
	if tcp.ACK {
		flags |= netpkt.FlagACK
	}
	if tcp.URG {
		flags |= netpkt.FlagURG
	}
	if tcp.ECE {
		flags |= netpkt.FlagECE
	}
	if tcp.CWR {
		flags |= netpkt.FlagCWR
	}
	if tcp.NS {
		flags |= netpkt.FlagNS
	}

	headerLength := int(tcp.DataOffset) * 4
	var options []byte
	if headerLength > 20 && len(tcp.Contents) >= headerLength {
		options = tcp.Contents[20:headerLength]
	}

	return netpkt.TCP{
		SrcPort:      uint16(tcp.SrcPort),
		DstPort:      uint16(tcp.DstPort),
		Seq:          tcp.Seq,
		Ack:          tcp.Ack,
		Flags:        flags,
		Window:       tcp.Window,
		UrgPtr:       tcp.Urgent,
		HeaderLength: headerLength,
		Options:      options,
		Payload:      tcp.Payload,
	}
}
