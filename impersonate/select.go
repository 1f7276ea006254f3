package impersonate

import (
	"math/rand"

	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/netpkt"
)

// SelectTCPSignature resolves a raw signature string, or else a raw label
// (picked uniformly at random among the direction's matching records in
// store), to a concrete TCP signature to impersonate.
func SelectTCPSignature(store *database.Store, dir netpkt.Direction, rawLabel, rawSignature string, rnd *rand.Rand) (database.TCPSignature, error) {
	if rawSignature != "" {
		return database.ParseTCPSignature(rawSignature)
	}
	if rawLabel == "" {
		return database.TCPSignature{}, &Error{Msg: "a raw label or raw signature is required to impersonate"}
	}
	rec, err := store.RandomTCP(rawLabel, dir, rnd)
	if err != nil {
		return database.TCPSignature{}, err
	}
	return rec.Signature, nil
}

// SelectMTUSignature resolves a raw signature string, or else a raw label
// picked uniformly at random among store's matching records, to a concrete
// MTU signature to impersonate.
func SelectMTUSignature(store *database.Store, rawLabel, rawSignature string, rnd *rand.Rand) (database.MTUSignature, error) {
	if rawSignature != "" {
		return database.ParseMTUSignature(rawSignature)
	}
	if rawLabel == "" {
		return database.MTUSignature{}, &Error{Msg: "a raw label or raw signature is required to impersonate"}
	}
	rec, err := store.RandomMTU(rawLabel, rnd)
	if err != nil {
		return database.MTUSignature{}, err
	}
	return rec.Signature, nil
}
