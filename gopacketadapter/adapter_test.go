package gopacketadapter

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

func serialize(t *testing.T, ip gopacket.SerializableLayer, tcp *layers.TCP, payload []byte) gopacket.Packet {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	layerList := []gopacket.SerializableLayer{ip, tcp}
	if len(payload) > 0 {
		layerList = append(layerList, gopacket.Payload(payload))
	}
	if err := gopacket.SerializeLayers(buf, opts, layerList...); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}

	var firstType gopacket.LayerType
	switch ip.(type) {
	case *layers.IPv4:
		firstType = layers.LayerTypeIPv4
	case *layers.IPv6:
		firstType = layers.LayerTypeIPv6
	}
	return gopacket.NewPacket(buf.Bytes(), firstType, gopacket.Default)
}

func TestFromGopacketIPv4SYN(t *testing.T) {
	ip4 := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Id:       1234,
		Flags:    layers.IPv4DontFragment,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(192, 168, 1, 1).To4(),
		DstIP:    net.IPv4(192, 168, 1, 2).To4(),
	}
	tcp := &layers.TCP{
		SrcPort: 51000,
		DstPort: 80,
		Seq:     100,
		SYN:     true,
		Window:  65535,
		Options: []layers.TCPOption{
			{OptionType: layers.TCPOptionKindMSS, OptionLength: 4, OptionData: []byte{0x05, 0xb4}},
			{OptionType: layers.TCPOptionKindNop, OptionLength: 1},
			{OptionType: layers.TCPOptionKindWindowScale, OptionLength: 3, OptionData: []byte{7}},
		},
	}
	tcp.SetNetworkLayerForChecksum(ip4)

	gp := serialize(t, ip4, tcp, nil)
	pkt, err := FromGopacket(gp)
	if err != nil {
		t.Fatalf("FromGopacket: %v", err)
	}

	if pkt.IP.Version != quirks.IPv4 {
		t.Errorf("Version = %v, want IPv4", pkt.IP.Version)
	}
	if !pkt.IP.Src.Equal(net.IPv4(192, 168, 1, 1)) {
		t.Errorf("Src = %v", pkt.IP.Src)
	}
	if pkt.IP.TTL != 64 {
		t.Errorf("TTL = %d, want 64", pkt.IP.TTL)
	}
	if !pkt.IP.DF {
		t.Errorf("expected DF set")
	}
	if pkt.IP.ID != 1234 {
		t.Errorf("ID = %d, want 1234", pkt.IP.ID)
	}
	if !pkt.TCP.Flags.Has(netpkt.FlagSYN) {
		t.Errorf("expected SYN flag")
	}
	if pkt.TCP.Window != 65535 {
		t.Errorf("Window = %d, want 65535", pkt.TCP.Window)
	}

	got := netpkt.ParseOptions(pkt.TCP.Options, true)
	if got.MSS != 1460 {
		t.Errorf("MSS = %d, want 1460", got.MSS)
	}
	if got.WindowScale != 7 {
		t.Errorf("WindowScale = %d, want 7", got.WindowScale)
	}
}

func TestFromGopacketIPv6(t *testing.T) {
	ip6 := &layers.IPv6{
		Version:      6,
		TrafficClass: 0,
		FlowLabel:    0x12345,
		NextHeader:   layers.IPProtocolTCP,
		HopLimit:     50,
		SrcIP:        net.ParseIP("2001:db8::1"),
		DstIP:        net.ParseIP("2001:db8::2"),
	}
	tcp := &layers.TCP{SrcPort: 1234, DstPort: 443, Seq: 1, ACK: true, Ack: 1, Window: 4096}
	tcp.SetNetworkLayerForChecksum(ip6)

	gp := serialize(t, ip6, tcp, nil)
	pkt, err := FromGopacket(gp)
	if err != nil {
		t.Fatalf("FromGopacket: %v", err)
	}

	if pkt.IP.Version != quirks.IPv6 {
		t.Errorf("Version = %v, want IPv6", pkt.IP.Version)
	}
	if pkt.IP.HeaderLength != 40 {
		t.Errorf("HeaderLength = %d, want 40", pkt.IP.HeaderLength)
	}
	if pkt.IP.TTL != 50 {
		t.Errorf("TTL = %d, want 50", pkt.IP.TTL)
	}
	if pkt.IP.FlowLabel != 0x12345 {
		t.Errorf("FlowLabel = %#x, want 0x12345", pkt.IP.FlowLabel)
	}
	if !pkt.TCP.Flags.Has(netpkt.FlagACK) {
		t.Errorf("expected ACK flag")
	}
}

func TestFromGopacketNoTCPLayer(t *testing.T) {
	ip4 := &layers.IPv4{
		Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IPv4(10, 0, 0, 1).To4(), DstIP: net.IPv4(10, 0, 0, 2).To4(),
	}
	udp := &layers.UDP{SrcPort: 53, DstPort: 53}
	udp.SetNetworkLayerForChecksum(ip4)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ip4, udp); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}
	gp := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeIPv4, gopacket.Default)

	if _, err := FromGopacket(gp); err != netpkt.ErrNotTCP {
		t.Errorf("err = %v, want ErrNotTCP", err)
	}
}

func TestFromGopacketNoIPLayer(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
		HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPRequest,
		SourceHwAddress:   []byte{0, 1, 2, 3, 4, 5},
		SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte{10, 0, 0, 2},
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}
	gp := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)

	if _, err := FromGopacket(gp); err != netpkt.ErrNoIP {
		t.Errorf("err = %v, want ErrNoIP", err)
	}
}
