package database

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

func deterministicRand(t *testing.T) *rand.Rand {
	t.Helper()
	return rand.New(rand.NewSource(1))
}

func TestLoadFixture(t *testing.T) {
	store, err := Load("testdata/p0f.fp")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(store.MTU) != 2 {
		t.Errorf("MTU records = %d, want 2", len(store.MTU))
	}
	if got := len(store.TCP[netpkt.ClientToServer]); got != 3 {
		t.Errorf("tcp:request records = %d, want 3", got)
	}
	if got := len(store.TCP[netpkt.ServerToClient]); got != 1 {
		t.Errorf("tcp:response records = %d, want 1", got)
	}
	if got := len(store.HTTP[netpkt.ClientToServer]); got != 1 {
		t.Errorf("http:request records = %d, want 1", got)
	}
	if store.Len() != 7 {
		t.Errorf("Len() = %d, want 7", store.Len())
	}
}

func TestLoadFixtureTCPFields(t *testing.T) {
	store, err := Load("testdata/p0f.fp")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	records := store.TCP[netpkt.ClientToServer]

	linux := records[0]
	if linux.Label.Name != "Linux" || linux.Label.OSClass != "unix" {
		t.Errorf("label = %+v", linux.Label)
	}
	if linux.Signature.TTL != 64 || linux.Signature.Window.Type != WindowMSS {
		t.Errorf("signature = %+v", linux.Signature)
	}

	wget := records[2]
	if !wget.Label.IsUserApp() {
		t.Errorf("wget label should be a user-app label")
	}
	if len(wget.Label.Sys) != 2 || wget.Label.Sys[0] != "Linux" {
		t.Errorf("sys = %v", wget.Label.Sys)
	}
}

func TestLoadFixtureHTTPFields(t *testing.T) {
	store, err := Load("testdata/p0f.fp")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sig := store.HTTP[netpkt.ClientToServer][0].Signature
	if sig.Version != 1 {
		t.Errorf("version = %d, want 1", sig.Version)
	}
	if !sig.HeaderNames["host"] || !sig.HeaderNames["user-agent"] {
		t.Errorf("header names = %v", sig.HeaderNames)
	}
	if sig.HeaderNames["connection"] {
		t.Errorf("optional header Connection should not be in HeaderNames")
	}
	var acceptOK bool
	for _, h := range sig.Headers {
		if h.Name == "Accept" && string(h.Value) == "*/*" {
			acceptOK = true
		}
	}
	if !acceptOK {
		t.Errorf("expected Accept=[*/*] header, got %+v", sig.Headers)
	}
}

func TestParseRejectsMisplacedSig(t *testing.T) {
	bad := "[mtu]\nsig = 1500\n"
	_, err := Parse(strings.NewReader(bad))
	if err == nil {
		t.Fatalf("expected error for sig before label")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("Line = %d, want 2", pe.Line)
	}
}

func TestParseRejectsUnrecognizedField(t *testing.T) {
	bad := "[mtu]\nlabel = foo\nbogus = 1\n"
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected error for unrecognized field")
	}
}

func TestParseTCPSignatureQuirksInvalidForVersion(t *testing.T) {
	_, err := ParseTCPSignature("6:64:0:*:*,*:mss:df:0")
	if err == nil {
		t.Fatalf("expected error: df is invalid for IPv6")
	}
}

func TestParseTCPSignatureWildcardMSS(t *testing.T) {
	sig, err := ParseTCPSignature("4:64:0:*:*,*:mss:ecn:0")
	if err != nil {
		t.Fatalf("ParseTCPSignature: %v", err)
	}
	if sig.MSS != Wildcard {
		t.Errorf("MSS = %d, want Wildcard", sig.MSS)
	}
	if sig.Window.Type != WindowAny {
		t.Errorf("Window.Type = %v, want WindowAny", sig.Window.Type)
	}
	if !sig.Quirks.Has(quirks.ECN) {
		t.Errorf("Quirks = %v, want ecn", sig.Quirks)
	}
}

func TestParseTCPSignatureTTLForms(t *testing.T) {
	sig, err := ParseTCPSignature("4:60+4:0:*:*,*:mss:df:0")
	if err != nil {
		t.Fatalf("ParseTCPSignature: %v", err)
	}
	if sig.TTL != 64 || sig.IsBadTTL {
		t.Errorf("ttl = %d, bad = %v, want 64, false", sig.TTL, sig.IsBadTTL)
	}

	sig2, err := ParseTCPSignature("4:200-:0:*:*,*:mss:df:0")
	if err != nil {
		t.Fatalf("ParseTCPSignature: %v", err)
	}
	if sig2.TTL != 200 || !sig2.IsBadTTL {
		t.Errorf("ttl = %d, bad = %v, want 200, true", sig2.TTL, sig2.IsBadTTL)
	}
}

func TestParseMTUSignatureRange(t *testing.T) {
	if _, err := ParseMTUSignature("0"); err == nil {
		t.Errorf("expected error for mtu 0")
	}
	if _, err := ParseMTUSignature("70000"); err == nil {
		t.Errorf("expected error for mtu > 65535")
	}
}

func TestRandomTCP(t *testing.T) {
	store, err := Load("testdata/p0f.fp")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	label := store.TCP[netpkt.ClientToServer][0].Label.Dump()
	r, err := store.RandomTCP(label, netpkt.ClientToServer, deterministicRand(t))
	if err != nil {
		t.Fatalf("RandomTCP: %v", err)
	}
	if r.Label.Dump() != label {
		t.Errorf("got label %q, want %q", r.Label.Dump(), label)
	}

	if _, err := store.RandomTCP("s:unix:Nonexistent::", netpkt.ClientToServer, deterministicRand(t)); err == nil {
		t.Errorf("expected error for unknown label")
	}
}
