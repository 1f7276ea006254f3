// Package p0f is a convenience façade over this module's components:
// load a signature database, fingerprint a packet's link MTU, TCP stack,
// HTTP traffic, or peer uptime against it, and impersonate a chosen
// signature. Callers after finer control can use the component packages
// (database, match, netpkt, httpread, impersonate, uptime) directly; this
// file only wires them together the way spec.md §6.2's function-level API
// describes.
package p0f

import (
	"math/rand"
	"sync"

	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/httpread"
	"github.com/passive-fp/p0f/impersonate"
	"github.com/passive-fp/p0f/match"
	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
	"github.com/passive-fp/p0f/uptime"
)

// ValueError reports that DefaultStore was called with no default database
// configured. An impersonation request with neither a label nor a raw
// signature is reported by impersonate.Error instead.
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string { return "p0f: " + e.Msg }

// Load reads and parses a p0f-format signature database file.
func Load(path string) (*database.Store, error) {
	return database.Load(path)
}

var (
	defaultStoreOnce sync.Once
	defaultStore     *database.Store
	defaultStoreErr  error
	defaultStorePath string
)

// UseDefaultDatabase records the path DefaultStore loads lazily on first
// use. It performs no I/O itself; call it once during startup before any
// code calls DefaultStore.
func UseDefaultDatabase(path string) {
	defaultStorePath = path
}

// DefaultStore lazily loads and memoizes the database configured by
// UseDefaultDatabase. This is an opt-in convenience for callers who don't
// want to thread a *database.Store through their own code; everything in
// this package also accepts an explicit Store.
func DefaultStore() (*database.Store, error) {
	defaultStoreOnce.Do(func() {
		if defaultStorePath == "" {
			defaultStoreErr = &ValueError{Msg: "no default database configured; call UseDefaultDatabase first"}
			return
		}
		defaultStore, defaultStoreErr = Load(defaultStorePath)
	})
	return defaultStore, defaultStoreErr
}

// MTUResult is the outcome of fingerprinting a packet's link MTU.
type MTUResult struct {
	MTU   int
	Match *match.MTUMatch
}

// FingerprintMTU derives the link MTU guess from pkt's SYN MSS option and
// looks it up in store.
func FingerprintMTU(store *database.Store, pkt netpkt.Packet, dir netpkt.Direction) (MTUResult, error) {
	f, err := netpkt.ExtractTCPSignature(pkt, dir)
	if err != nil {
		return MTUResult{}, err
	}
	mtu, err := match.PacketMTU(f)
	if err != nil {
		return MTUResult{}, err
	}

	result := MTUResult{MTU: mtu}
	if m, ok := match.MatchMTU(store, mtu); ok {
		result.Match = &m
	}
	return result, nil
}

// TCPResult is the outcome of fingerprinting a packet's TCP stack.
type TCPResult struct {
	Features netpkt.TCPFeatures
	Match    *match.TCPMatch
	Distance int
}

// FingerprintTCP extracts pkt's TCP feature vector, computes its window
// multiplier (using peerSYNMSS, the MSS the other side of the connection
// advertised in its own SYN, when known), and looks up the best match in
// store.
func FingerprintTCP(store *database.Store, pkt netpkt.Packet, dir netpkt.Direction, peerSYNMSS *uint16, opts match.Options) (TCPResult, error) {
	f, err := netpkt.ExtractTCPSignature(pkt, dir)
	if err != nil {
		return TCPResult{}, err
	}

	headersLength := pkt.IP.HeaderLength + pkt.TCP.HeaderLength
	mult := match.ComputeWindowMultiplier(f.Window, f.MSS, hasTimestampOption(f.Layout), f.IPVersion == quirks.IPv6, headersLength, peerSYNMSS)

	result := TCPResult{Features: f}
	m, matched := match.FindTCPMatch(store, dir, f, mult, opts)
	if matched {
		result.Match = &m
	}
	result.Distance = match.TCPDistance(m, matched, f.TTL)
	return result, nil
}

func hasTimestampOption(layout []quirks.OptionCode) bool {
	for _, c := range layout {
		if c == quirks.OptTS {
			return true
		}
	}
	return false
}

// HTTPResult is the outcome of fingerprinting an HTTP/1.x message head.
type HTTPResult struct {
	Payload httpread.Payload
	Match   *match.HTTPMatch
}

// FingerprintHTTP reads buf as an HTTP/1.x message head and looks up the
// best match in store.
func FingerprintHTTP(store *database.Store, buf []byte) (HTTPResult, error) {
	p, err := httpread.Read(buf)
	if err != nil {
		return HTTPResult{}, err
	}

	result := HTTPResult{Payload: p}
	if m, ok := match.FindHTTPMatch(store, p.Direction, p); ok {
		result.Match = &m
	}
	return result, nil
}

// FingerprintUptime estimates the peer's clock frequency and uptime from
// two TCP-timestamp observations of the same connection.
func FingerprintUptime(pkt netpkt.Packet, nowMs int64, current, last uptime.Observation, opts uptime.Options) (uptime.Result, error) {
	return uptime.Fingerprint(pkt, nowMs, current, last, opts)
}

// ImpersonateTCP mutates a copy of pkt to match a TCP signature selected
// from store by rawLabel or rawSignature (rawSignature wins when both are
// given).
func ImpersonateTCP(store *database.Store, pkt netpkt.Packet, dir netpkt.Direction, rawLabel, rawSignature string, opts impersonate.TCPOptions, rnd *rand.Rand) (netpkt.Packet, error) {
	sig, err := impersonate.SelectTCPSignature(store, dir, rawLabel, rawSignature, rnd)
	if err != nil {
		return netpkt.Packet{}, err
	}
	if opts.Rand == nil {
		opts.Rand = rnd
	}
	return impersonate.ImpersonateTCP(pkt, sig, opts)
}

// ImpersonateMTU mutates a copy of pkt's MSS option to match an MTU
// signature selected from store by rawLabel or rawSignature.
func ImpersonateMTU(store *database.Store, pkt netpkt.Packet, rawLabel, rawSignature string, rnd *rand.Rand) (netpkt.Packet, error) {
	sig, err := impersonate.SelectMTUSignature(store, rawLabel, rawSignature, rnd)
	if err != nil {
		return netpkt.Packet{}, err
	}
	return impersonate.ImpersonateMTU(pkt, sig)
}
