package match

// minTCP4 and minTCP6 are the smallest possible full IP+TCP header sizes
// (no IP or TCP options), used as MTU-guess divisors below.
const (
	minTCP4 = 20 + 20
	minTCP6 = 40 + 20
)

// Multiplier is the result of ComputeWindowMultiplier: the window size
// expressed as size/div for some divisor div the matcher tried, and
// whether that divisor was an MTU guess rather than an MSS one.
type Multiplier struct {
	Value int // database.Wildcard if no divisor evenly divided the window
	IsMTU bool
}

// ComputeWindowMultiplier tries, in order, the same list of candidate
// divisors p0f itself tries (own MSS, MSS-12 for timestamp users, a
// handful of "wrong interface" MTU guesses, and the peer's SYN MSS when
// known) and returns the first that evenly divides the window size.
func ComputeWindowMultiplier(window uint16, mss uint16, hasTimestamp, isIPv6 bool, headersLength int, synMSS *uint16) Multiplier {
	if window == 0 || mss < 100 {
		return Multiplier{Value: -1}
	}

	type candidate struct {
		div   int
		isMTU bool
	}
	var divs []candidate
	add := func(div int, isMTU bool) {
		divs = append(divs, candidate{div, isMTU})
	}

	m := int(mss)
	add(m, false)
	if hasTimestamp {
		add(m-12, false)
	}

	add(1500-minTCP4, false)
	add(1500-minTCP4-12, false)
	if isIPv6 {
		add(1500-minTCP6, false)
		add(1500-minTCP6-12, false)
	}

	add(m+minTCP4, true)
	add(m+headersLength, true)
	if isIPv6 {
		add(m+minTCP6, true)
	}
	add(1500, true)

	if synMSS != nil {
		peer := int(*synMSS)
		add(peer, false)
		add(peer-12, false)
	}

	w := int(window)
	for _, c := range divs {
		if c.div > 0 && w%c.div == 0 {
			return Multiplier{Value: w / c.div, IsMTU: c.isMTU}
		}
	}
	return Multiplier{Value: -1}
}
