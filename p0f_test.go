package p0f

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/impersonate"
	"github.com/passive-fp/p0f/match"
	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
	"github.com/passive-fp/p0f/uptime"
)

const fixtureDB = `
[mtu]
label = Ethernet or modem
sig = 1500

[tcp:request]
label = s:unix:Linux:2.6.x
sig = 4:64:0:*:mss*4,0:mss,sok,ts,nop,ws:df,id+:0

[http:request]
label = s:win:Firefox:1
sig = 1:Host,User-Agent,Accept=[*/*],?Connection:Accept-Charset:Firefox
`

func loadFixture(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Parse(strings.NewReader(fixtureDB))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return store
}

func TestFingerprintMTU(t *testing.T) {
	store := loadFixture(t)
	pkt := netpkt.Packet{
		IP: netpkt.IP{Version: 4, HeaderLength: 20},
		TCP: netpkt.TCP{
			Flags:        netpkt.FlagSYN,
			Options:      netpkt.EncodeOptions([]netpkt.OptionValue{{Code: quirks.OptMSS, MSS: 1460}}),
			HeaderLength: 24,
		},
	}

	result, err := FingerprintMTU(store, pkt, netpkt.ClientToServer)
	if err != nil {
		t.Fatalf("FingerprintMTU: %v", err)
	}
	if result.MTU != 1500 {
		t.Errorf("MTU = %d, want 1500", result.MTU)
	}
	if result.Match == nil {
		t.Fatalf("expected a match")
	}
}

func TestFingerprintTCPRoundTripWithImpersonate(t *testing.T) {
	store := loadFixture(t)
	rnd := rand.New(rand.NewSource(1))

	template := netpkt.Packet{
		IP:  netpkt.IP{Version: 4},
		TCP: netpkt.TCP{Flags: netpkt.FlagSYN},
	}
	pkt, err := ImpersonateTCP(store, template, netpkt.ClientToServer, "s:unix:Linux:2.6.x", "", impersonate.TCPOptions{}, rnd)
	if err != nil {
		t.Fatalf("ImpersonateTCP: %v", err)
	}

	result, err := FingerprintTCP(store, pkt, netpkt.ClientToServer, nil, match.DefaultOptions)
	if err != nil {
		t.Fatalf("FingerprintTCP: %v", err)
	}
	if result.Match == nil {
		t.Fatalf("expected a match")
	}
	if result.Match.Type != match.TCPExact {
		t.Errorf("match type = %v, want TCPExact", result.Match.Type)
	}
}

func TestFingerprintHTTP(t *testing.T) {
	store := loadFixture(t)
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\nUser-Agent: Firefox/99\r\nAccept: */*\r\nConnection: keep-alive\r\n\r\n"

	result, err := FingerprintHTTP(store, []byte(raw))
	if err != nil {
		t.Fatalf("FingerprintHTTP: %v", err)
	}
	if result.Match == nil {
		t.Fatalf("expected a match")
	}
	if result.Match.IsDishonest() {
		t.Errorf("expected an honest match")
	}
}

func TestFingerprintUptime(t *testing.T) {
	pkt := netpkt.Packet{IP: netpkt.IP{Version: 4}, TCP: netpkt.TCP{Flags: netpkt.FlagACK}}
	last := uptime.Observation{ReceivedAtMs: 0, TimestampSelf: 1545573, HasTimestamp: true}
	current := uptime.Observation{TimestampSelf: 1545586, HasTimestamp: true}

	result, err := FingerprintUptime(pkt, 130, current, last, uptime.DefaultOptions)
	if err != nil {
		t.Fatalf("FingerprintUptime: %v", err)
	}
	if result.TPS == nil || *result.TPS != 100 {
		t.Fatalf("TPS = %v, want 100", result.TPS)
	}
}

func TestImpersonateMTU(t *testing.T) {
	store := loadFixture(t)
	rnd := rand.New(rand.NewSource(1))
	pkt := netpkt.Packet{IP: netpkt.IP{Version: 4}, TCP: netpkt.TCP{Flags: netpkt.FlagSYN}}

	out, err := ImpersonateMTU(store, pkt, "Ethernet or modem", "", rnd)
	if err != nil {
		t.Fatalf("ImpersonateMTU: %v", err)
	}

	result, err := FingerprintMTU(store, out, netpkt.ClientToServer)
	if err != nil {
		t.Fatalf("FingerprintMTU: %v", err)
	}
	if result.MTU != 1500 {
		t.Errorf("MTU = %d, want 1500", result.MTU)
	}
}

// TestDefaultStoreRequiresConfiguration relies on no other test in this
// package calling DefaultStore first: sync.Once means the check below only
// reflects the very first call in the whole test binary.
func TestDefaultStoreRequiresConfiguration(t *testing.T) {
	if _, err := DefaultStore(); err == nil {
		t.Errorf("expected an error with no default database configured")
	}
}
