package httpread

import (
	"bytes"
	"regexp"
	"time"

	"github.com/intuitivelabs/bytescase"
	"github.com/passive-fp/p0f/netpkt"
)

// Header is a single observed HTTP header, its name and folded value.
type Header struct {
	Name      []byte
	LowerName []byte
	Value     []byte
}

func newHeader(name, value []byte) Header {
	lower := make([]byte, len(name))
	bytescase.ToLower(name, lower)
	// Value is copied out of the scanned line's backing array so that a
	// later continuation-line append (which grows it) can never clobber
	// an adjacent header's bytes.
	v := make([]byte, len(value), len(value)+32)
	copy(v, value)
	return Header{Name: name, LowerName: lower, Value: v}
}

// Payload is the parsed first line plus header block of an HTTP/1.x
// request or response, used by the HTTP matcher (§4.H).
type Payload struct {
	Direction netpkt.Direction
	Version   int // minor version: 0 for HTTP/1.0, 1 for HTTP/1.1
	Headers   []Header
}

var crlf = []byte("\r\n")
var httpVersionPattern = regexp.MustCompile(`^HTTP/1\.([01])$`)

// ReadFirstLine classifies a GET/HEAD request line as client-to-server and
// any other first line (a status line) as server-to-client, extracting the
// HTTP/1.x minor version either way. Only GET/HEAD requests are
// recognized, matching p0f's own deliberately narrow interest in request
// lines (other methods rarely carry useful fingerprinting signal and are
// out of scope here).
func ReadFirstLine(line []byte) (netpkt.Direction, int, error) {
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return 0, 0, ErrBadFirstLine
	}

	var dir netpkt.Direction
	var rawVersion []byte

	switch {
	case bytes.Equal(fields[0], []byte("GET")), bytes.Equal(fields[0], []byte("HEAD")):
		if len(fields) < 3 {
			return 0, 0, ErrBadFirstLine
		}
		dir = netpkt.ClientToServer
		rawVersion = fields[2]
	default:
		dir = netpkt.ServerToClient
		rawVersion = fields[0]
	}

	m := httpVersionPattern.FindSubmatch(rawVersion)
	if m == nil {
		return 0, 0, ErrBadVersion
	}
	version := int(m[1][0] - '0')
	return dir, version, nil
}

// ReadHeaders reads header lines up to (not including) the blank line that
// terminates the header block, folding continuation lines (leading
// whitespace) into the previous header's value.
func ReadHeaders(lines [][]byte) ([]Header, error) {
	var headers []Header

	for _, line := range lines {
		if len(line) == 0 {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(headers) == 0 {
				return nil, ErrBadHeader
			}
			prev := &headers[len(headers)-1]
			prev.Value = append(append(append(prev.Value, crlf...), ' '), bytes.TrimSpace(line)...)
			continue
		}

		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok || len(name) == 0 {
			return nil, ErrBadHeader
		}
		headers = append(headers, newHeader(name, bytes.TrimSpace(value)))
	}

	return headers, nil
}

// Read splits a raw byte buffer into CRLF-terminated lines and parses it
// as an HTTP/1.x message head (first line + headers, stopping at the
// blank line). ErrIncomplete is returned if no blank-line terminator is
// found, since that means the caller hasn't yet received the full head.
func Read(buf []byte) (Payload, error) {
	terminator := bytes.Index(buf, []byte("\r\n\r\n"))
	if terminator < 0 {
		return Payload{}, ErrIncomplete
	}

	lines := bytes.Split(buf[:terminator], crlf)
	if len(lines) == 0 {
		return Payload{}, ErrNotHTTP
	}

	dir, version, err := ReadFirstLine(lines[0])
	if err != nil {
		return Payload{}, err
	}

	headers, err := ReadHeaders(lines[1:])
	if err != nil {
		return Payload{}, err
	}

	return Payload{Direction: dir, Version: version, Headers: headers}, nil
}

func (p Payload) headerValue(name []byte) []byte {
	for _, h := range p.Headers {
		if bytescase.CmpEq(h.Name, name) {
			return h.Value
		}
	}
	return nil
}

// Software returns the observed User-Agent, falling back to Server.
func (p Payload) Software() []byte {
	if v := p.headerValue([]byte("User-Agent")); v != nil {
		return v
	}
	return p.headerValue([]byte("Server"))
}

// Via returns the observed Via header, falling back to X-Forwarded-For.
func (p Payload) Via() []byte {
	if v := p.headerValue([]byte("Via")); v != nil {
		return v
	}
	return p.headerValue([]byte("X-Forwarded-For"))
}

// Language returns the observed Accept-Language header.
func (p Payload) Language() []byte {
	return p.headerValue([]byte("Accept-Language"))
}

// Date returns the parsed Date header, or the zero time and false if
// absent or unparseable.
func (p Payload) Date() (time.Time, bool) {
	v := p.headerValue([]byte("Date"))
	if v == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC1123, string(v))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HeaderNames returns the set of lower-cased header names observed.
func (p Payload) HeaderNames() map[string]bool {
	names := make(map[string]bool, len(p.Headers))
	for _, h := range p.Headers {
		names[string(h.LowerName)] = true
	}
	return names
}
