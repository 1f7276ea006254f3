// Package httpread implements a minimal HTTP/1.x request/response reader
// (component G): just enough of the first line and header block to feed
// the HTTP matcher, not a general-purpose HTTP parser (framing, chunked
// bodies and HTTP/2+ are explicitly out of scope).
package httpread

// PayloadError reports a payload that isn't a well-formed HTTP/1.x
// request or response head, the way sipsp's ErrorHdr reports a malformed
// SIP message.
type PayloadError uint8

const (
	ErrNotHTTP PayloadError = iota
	ErrIncomplete
	ErrBadFirstLine
	ErrBadVersion
	ErrBadHeader
)

var payloadErrorText = [...]string{
	ErrNotHTTP:      "httpread: not an HTTP/1.x payload",
	ErrIncomplete:   "httpread: incomplete payload, headers not terminated",
	ErrBadFirstLine: "httpread: malformed first line",
	ErrBadVersion:   "httpread: unsupported or malformed HTTP version",
	ErrBadHeader:    "httpread: malformed header line",
}

func (e PayloadError) Error() string {
	if int(e) < 0 || int(e) >= len(payloadErrorText) {
		return "httpread: unknown error"
	}
	return payloadErrorText[e]
}
