package match

import (
	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

// PacketMTU derives the link MTU guess from an extracted SYN's MSS option:
// MTU is MSS plus the smallest possible IP+TCP header overhead for the
// packet's IP version.
func PacketMTU(f netpkt.TCPFeatures) (int, error) {
	if f.MSS == 0 {
		return 0, &database.DatabaseError{Msg: "mtu fingerprint requires an MSS value"}
	}
	overhead := minTCP4
	if f.IPVersion == quirks.IPv6 {
		overhead = minTCP6
	}
	return int(f.MSS) + overhead, nil
}

// MatchMTU scans records in declaration order for the first exact MTU
// value match. There is no fuzzy MTU matching in p0f.
func MatchMTU(store *database.Store, mtu int) (MTUMatch, bool) {
	for _, r := range store.MTU {
		if r.Signature.MTU == mtu {
			return MTUMatch{Record: r}, true
		}
	}
	return MTUMatch{}, false
}
