// Package uptime estimates a peer's clock frequency and system uptime from
// the drift between two TCP-timestamp observations of the same connection
// (spec §4.K).
package uptime

import "github.com/passive-fp/p0f/netpkt"

// Observation is one packet's TCP-timestamp sample: when it was received
// and the value of its own (not peer's) timestamp option, if any.
type Observation struct {
	ReceivedAtMs  int64
	TimestampSelf uint32
	HasTimestamp  bool
}

// Options tunes the guard windows fingerprint_uptime uses to reject noisy
// or out-of-order samples. The zero value is not ready to use; start from
// DefaultOptions.
type Options struct {
	MinTimestampWaitMs int64
	MaxTimestampWaitMs int64
	// TimestampGraceMs allows the timestamp to appear to regress slightly
	// within a short window, since packets can arrive a bit out of order.
	TimestampGraceMs  int64
	MinTimestampScale float64
	MaxTimestampScale float64
}

// DefaultOptions matches spec.md §4.K and §9's resolved grace window: wait
// at least 25ms and at most 10 minutes between samples, tolerate apparent
// regression within a 1-second grace window, and accept a peer clock
// between 0.7Hz and 1500Hz.
var DefaultOptions = Options{
	MinTimestampWaitMs: 25,
	MaxTimestampWaitMs: 10 * 60 * 1000,
	TimestampGraceMs:   1000,
	MinTimestampScale:  0.7,
	MaxTimestampScale:  1500,
}

// BadTPS is the sentinel TPS value reported when a frequency reading falls
// outside the accepted range on a non-SYN packet.
const BadTPS = -1

// Uptime is a computed peer-clock estimate.
type Uptime struct {
	RawFrequency float64
	Frequency    int
	TotalMinutes int64
	ModuloDays   int64
}

func (u Uptime) Days() int64    { return u.TotalMinutes / 60 / 24 }
func (u Uptime) Hours() int64   { return u.TotalMinutes / 60 % 24 }
func (u Uptime) Minutes() int64 { return u.TotalMinutes % 60 }

func newUptime(timestampSelf uint32, rawFrequency float64) Uptime {
	freq := roundFrequency(rawFrequency)
	return Uptime{
		RawFrequency: rawFrequency,
		Frequency:    freq,
		TotalMinutes: int64(timestampSelf) / int64(freq) / 60,
		ModuloDays:   0xFFFFFFFF / (int64(freq) * 60 * 60 * 24),
	}
}

// roundFrequency buckets a raw Hz reading to a neat integer, the way real
// clocks cluster around 100Hz/250Hz/1000Hz rather than arbitrary values.
func roundFrequency(rawFrequency float64) int {
	freq := int(rawFrequency)

	switch {
	case freq == 0:
		return 1
	case freq >= 1 && freq <= 10:
		return freq
	case freq >= 11 && freq <= 50:
		return (freq + 3) / 5 * 5
	case freq >= 51 && freq <= 100:
		return (freq + 7) / 10 * 10
	case freq >= 101 && freq <= 500:
		return (freq + 33) / 50 * 50
	default:
		return (freq + 67) / 100 * 100
	}
}

// Result is the outcome of a single uptime fingerprint attempt. TPS is nil
// when either observation lacks a usable timestamp or a guard window
// rejected the pair outright; a non-nil TPS of BadTPS means a frequency
// reading was computed but fell outside the plausible range.
type Result struct {
	TPS    *int
	Uptime *Uptime
}

// ValidForFingerprint implements the §4.K eligibility rule: a
// non-fragmented packet whose control-bit type is exactly SYN, SYN+ACK,
// or ACK. This is the one fingerprint operation that also accepts plain
// ACK traffic, not just the initial handshake.
func ValidForFingerprint(pkt netpkt.Packet) bool {
	if !pkt.ShouldFingerprint() {
		return false
	}
	switch pkt.TCP.Type() {
	case netpkt.FlagSYN, netpkt.FlagSYN | netpkt.FlagACK, netpkt.FlagACK:
		return true
	default:
		return false
	}
}

// Fingerprint estimates the peer's clock frequency and uptime from current
// (the packet being fingerprinted, S2) and last (the earlier sample for
// the same peer, S1), following pyp0f's fingerprint/uptime.py. The ts_diff
// subtraction is unsigned 32-bit, matching the wire's own wraparound
// rather than Python's arbitrary-precision arithmetic (see DESIGN.md).
func Fingerprint(pkt netpkt.Packet, nowMs int64, current, last Observation, opts Options) (Result, error) {
	if !ValidForFingerprint(pkt) {
		return Result{}, &Error{Msg: "packet must be SYN, SYN+ACK, or ACK to fingerprint uptime"}
	}
	if !current.HasTimestamp || !last.HasTimestamp {
		return Result{}, nil
	}

	msDiff := nowMs - last.ReceivedAtMs
	tsDiff := current.TimestampSelf - last.TimestampSelf
	complement := ^tsDiff

	if msDiff < opts.MinTimestampWaitMs || msDiff > opts.MaxTimestampWaitMs ||
		tsDiff < 5 ||
		(msDiff < opts.TimestampGraceMs &&
			float64(complement/1000) < opts.MaxTimestampScale/float64(opts.TimestampGraceMs)) {
		return Result{}, nil
	}

	var rawFrequency float64
	if tsDiff > complement {
		rawFrequency = float64(complement) * -1000.0 / float64(msDiff)
	} else {
		rawFrequency = float64(tsDiff) * 1000.0 / float64(msDiff)
	}

	if rawFrequency < opts.MinTimestampScale || rawFrequency > opts.MaxTimestampScale {
		if pkt.TCP.Type() == netpkt.FlagSYN {
			return Result{}, nil
		}
		bad := BadTPS
		return Result{TPS: &bad}, nil
	}

	u := newUptime(current.TimestampSelf, rawFrequency)
	freq := u.Frequency
	return Result{TPS: &freq, Uptime: &u}, nil
}
