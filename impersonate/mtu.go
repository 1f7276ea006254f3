package impersonate

import (
	"encoding/binary"

	"github.com/passive-fp/p0f/database"
	"github.com/passive-fp/p0f/netpkt"
	"github.com/passive-fp/p0f/quirks"
)

// minTCP4 and minTCP6 mirror match's own MTU-overhead constants (kept as a
// local copy rather than exported from match, since the two packages have
// no other reason to depend on each other).
const (
	minTCP4 = 20 + 20
	minTCP6 = 40 + 20
)

// ImpersonateMTU returns a copy of pkt with its MSS option set so that the
// packet's apparent link MTU matches sig. If the packet already carries an
// MSS option, only its value is overwritten; otherwise the entire option
// list is replaced with a lone MSS option, following pyp0f's own
// impersonate/mtu.py (which does the same, discarding any other options
// a packet with no MSS of its own happened to carry).
func ImpersonateMTU(pkt netpkt.Packet, sig database.MTUSignature) (netpkt.Packet, error) {
	overhead := minTCP4
	if pkt.IP.Version == quirks.IPv6 {
		overhead = minTCP6
	}
	mss := sig.MTU - overhead
	if mss <= 0 || mss > 65535 {
		return netpkt.Packet{}, &Error{Msg: "mtu value too small to carry a valid MSS"}
	}

	out := pkt
	buf := append([]byte(nil), out.TCP.Options...)
	if i, ok := findMSSValueOffset(buf); ok {
		binary.BigEndian.PutUint16(buf[i:i+2], uint16(mss))
		out.TCP.Options = buf
	} else {
		out.TCP.Options = netpkt.EncodeOptions([]netpkt.OptionValue{{Code: quirks.OptMSS, MSS: uint16(mss)}})
	}
	out.TCP.HeaderLength = 20 + len(out.TCP.Options)

	return out, nil
}

// findMSSValueOffset walks a raw TCP option-byte region looking for an
// MSS option, returning the offset of its 2-byte value field.
func findMSSValueOffset(buf []byte) (int, bool) {
	i := 0
	for i < len(buf) {
		code := quirks.OptionCode(buf[i])
		if code == quirks.OptEOL {
			return 0, false
		}
		if code == quirks.OptNOP {
			i++
			continue
		}
		if i+1 >= len(buf) {
			return 0, false
		}
		length := int(buf[i+1])
		if length < 2 {
			return 0, false
		}
		if code == quirks.OptMSS && length == 4 && i+4 <= len(buf) {
			return i + 2, true
		}
		i += length
	}
	return 0, false
}
