package match

import (
	"bytes"

	"github.com/intuitivelabs/bytescase"
	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/httpread"
	"github.com/passive-fp/p0f/netpkt"
)

// headersMatch checks the ordering and values of a signature's headers
// against the observed packet headers. Non-optional headers must appear,
// in order; optional headers, if present in the packet, must appear in
// the expected slot, but their total absence is fine as long as they
// don't show up out of order elsewhere.
func headersMatch(sigHeaders []database.SigHeader, pktHeaders []httpread.Header) bool {
	i := 0

	for _, h := range sigHeaders {
		name := []byte(h.Name)
		start := i
		for i < len(pktHeaders) && !bytescase.CmpEq(name, pktHeaders[i].Name) {
			i++
		}

		if i == len(pktHeaders) {
			if !h.IsOptional {
				return false
			}
			for _, ph := range pktHeaders {
				if bytescase.CmpEq(name, ph.Name) {
					return false
				}
			}
			i = start
			continue
		}

		if h.Value != nil && !bytes.Contains(pktHeaders[i].Value, h.Value) {
			return false
		}
		i++
	}

	return true
}

// signaturesMatchHTTP checks version, required/absent headers, and header
// ordering/values, the way pyp0f's signatures_match does for HTTP.
func signaturesMatchHTTP(sig database.HTTPSignature, p httpread.Payload) bool {
	if sig.Version != database.Wildcard && sig.Version != p.Version {
		return false
	}

	observed := p.HeaderNames()
	for name := range sig.HeaderNames {
		if !observed[name] {
			return false
		}
	}
	for name := range sig.AbsentHeaders {
		if observed[name] {
			return false
		}
	}

	return headersMatch(sig.Headers, p.Headers)
}

// FindHTTPMatch searches the direction's HTTP records, preferring the
// first non-generic match over the first generic one.
func FindHTTPMatch(store *database.Store, dir netpkt.Direction, p httpread.Payload) (HTTPMatch, bool) {
	var generic *database.HTTPRecord

	for i, r := range store.HTTP[dir] {
		if !signaturesMatchHTTP(r.Signature, p) {
			continue
		}
		if !r.IsGeneric() {
			return buildHTTPMatch(r, p), true
		}
		if generic == nil {
			generic = &store.HTTP[dir][i]
		}
	}

	if generic != nil {
		return buildHTTPMatch(*generic, p), true
	}
	return HTTPMatch{}, false
}

// buildHTTPMatch flags a match dishonest when the observed software
// string contradicts the one the matched signature expects.
func buildHTTPMatch(r database.HTTPRecord, p httpread.Payload) HTTPMatch {
	mt := HTTPExact
	software := p.Software()
	if software != nil && r.Signature.ExpectedSoftware != nil &&
		!bytes.Contains(software, r.Signature.ExpectedSoftware) {
		mt = HTTPDishonest
	}
	return HTTPMatch{Type: mt, Record: r}
}
