package netpkt

// PacketError reports a packet the core refuses to extract a signature
// from, as distinct from a packet that merely carries quirks (which is a
// normal, matchable signature, not an error).
type PacketError int

const (
	// ErrNotTCP means the packet carries no TCP layer.
	ErrNotTCP PacketError = iota
	// ErrNoIP means the packet carries no IPv4 or IPv6 layer.
	ErrNoIP
	// ErrShouldSkip means ShouldFingerprint reported false for this packet
	// (a fragment, or an uninteresting flag combination).
	ErrShouldSkip
)

var packetErrorText = [...]string{
	ErrNotTCP:     "netpkt: packet has no TCP layer",
	ErrNoIP:       "netpkt: packet has no IP layer",
	ErrShouldSkip: "netpkt: packet is not eligible for fingerprinting",
}

func (e PacketError) Error() string {
	if int(e) < 0 || int(e) >= len(packetErrorText) {
		return "netpkt: unknown error"
	}
	return packetErrorText[e]
}
