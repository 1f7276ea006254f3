package database

import (
	"math/rand"

	"github.com/passive-fp/p0f/netpkt"
)

// Store is the in-memory signature database: an [mtu] section's records,
// plus a [tcp:direction]/[http:direction] section's records per direction.
// Records are kept in file declaration order, the order the matcher's
// specific-over-generic scan (and RandomTCP/RandomMTU sampling) depend on.
type Store struct {
	MTU  []MTURecord
	TCP  map[netpkt.Direction][]TCPRecord
	HTTP map[netpkt.Direction][]HTTPRecord
}

// NewStore returns an empty, ready-to-populate Store.
func NewStore() *Store {
	return &Store{
		TCP:  make(map[netpkt.Direction][]TCPRecord),
		HTTP: make(map[netpkt.Direction][]HTTPRecord),
	}
}

// Len returns the total record count across every section and direction,
// useful for load-time diagnostics.
func (s *Store) Len() int {
	n := len(s.MTU)
	for _, records := range s.TCP {
		n += len(records)
	}
	for _, records := range s.HTTP {
		n += len(records)
	}
	return n
}

// addTCP appends a record to the given direction's list, creating it if
// this is the section's first record.
func (s *Store) addTCP(dir netpkt.Direction, r TCPRecord) {
	s.TCP[dir] = append(s.TCP[dir], r)
}

func (s *Store) addHTTP(dir netpkt.Direction, r HTTPRecord) {
	s.HTTP[dir] = append(s.HTTP[dir], r)
}

func (s *Store) addMTU(r MTURecord) {
	s.MTU = append(s.MTU, r)
}

// RandomTCP returns a uniformly random record among the TCP records in the
// given direction whose label dumps to rawLabel — the way impersonation by
// label picks a concrete signature to synthesize from (§4.J).
func (s *Store) RandomTCP(rawLabel string, dir netpkt.Direction, rnd *rand.Rand) (TCPRecord, error) {
	var matches []TCPRecord
	for _, r := range s.TCP[dir] {
		if r.Label.Dump() == rawLabel {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return TCPRecord{}, &DatabaseError{Msg: "no matching tcp record for label " + rawLabel}
	}
	return matches[rnd.Intn(len(matches))], nil
}

// RandomMTU returns a uniformly random record among the MTU records whose
// label matches rawLabel.
func (s *Store) RandomMTU(rawLabel string, rnd *rand.Rand) (MTURecord, error) {
	var matches []MTURecord
	for _, r := range s.MTU {
		if r.Label.Dump() == rawLabel {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return MTURecord{}, &DatabaseError{Msg: "no matching mtu record for label " + rawLabel}
	}
	return matches[rnd.Intn(len(matches))], nil
}
