package impersonate

import (
	"encoding/binary"
	"testing"

	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

func TestImpersonateMTUOverwritesExistingMSS(t *testing.T) {
	pkt := netpkt.Packet{
		IP: netpkt.IP{Version: quirks.IPv4},
		TCP: netpkt.TCP{
			Options: netpkt.EncodeOptions([]netpkt.OptionValue{
				{Code: quirks.OptMSS, MSS: 9999},
				{Code: quirks.OptNOP},
				{Code: quirks.OptSACKOK},
			}),
		},
	}

	out, err := ImpersonateMTU(pkt, database.MTUSignature{MTU: 1500})
	if err != nil {
		t.Fatalf("ImpersonateMTU: %v", err)
	}

	opts := netpkt.ParseOptions(out.TCP.Options, true)
	if opts.MSS != 1500-40 {
		t.Errorf("MSS = %d, want %d", opts.MSS, 1500-40)
	}
	if len(opts.Layout) != 3 {
		t.Errorf("Layout = %v, want 3 options preserved", opts.Layout)
	}
}

func TestImpersonateMTUWithNoExistingMSS(t *testing.T) {
	pkt := netpkt.Packet{
		IP:  netpkt.IP{Version: quirks.IPv4},
		TCP: netpkt.TCP{Options: netpkt.EncodeOptions([]netpkt.OptionValue{{Code: quirks.OptNOP}})},
	}

	out, err := ImpersonateMTU(pkt, database.MTUSignature{MTU: 576})
	if err != nil {
		t.Fatalf("ImpersonateMTU: %v", err)
	}

	if len(out.TCP.Options) != 4 {
		t.Fatalf("Options = %v, want a lone 4-byte MSS option", out.TCP.Options)
	}
	got := binary.BigEndian.Uint16(out.TCP.Options[2:4])
	if want := uint16(576 - 40); got != want {
		t.Errorf("MSS = %d, want %d", got, want)
	}
}

func TestImpersonateMTUIPv6Overhead(t *testing.T) {
	pkt := netpkt.Packet{IP: netpkt.IP{Version: quirks.IPv6}}
	out, err := ImpersonateMTU(pkt, database.MTUSignature{MTU: 1500})
	if err != nil {
		t.Fatalf("ImpersonateMTU: %v", err)
	}
	opts := netpkt.ParseOptions(out.TCP.Options, true)
	if want := uint16(1500 - 60); opts.MSS != want {
		t.Errorf("MSS = %d, want %d", opts.MSS, want)
	}
}

func TestImpersonateMTUTooSmall(t *testing.T) {
	pkt := netpkt.Packet{IP: netpkt.IP{Version: quirks.IPv4}}
	if _, err := ImpersonateMTU(pkt, database.MTUSignature{MTU: 10}); err == nil {
		t.Errorf("expected an error for an MTU too small to carry an MSS")
	}
}
