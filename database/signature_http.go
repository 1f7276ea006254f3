package database

import "strings"

// SigHeader is a single header entry inside an HTTP signature: its name,
// an optional expected value, and whether the header is merely "nice to
// have" (present in the common case but not required for a match).
type SigHeader struct {
	Name       string
	Value      []byte
	IsOptional bool
}

// HTTPSignature is the parsed form of an [http] section's "sig=" value.
type HTTPSignature struct {
	Version         int // 0, 1, or Wildcard
	Headers         []SigHeader
	AbsentHeaders   map[string]bool
	ExpectedSoftware []byte

	// HeaderNames is the set of required (non-optional) header names,
	// lower-cased, computed once at parse time for the matcher's use.
	HeaderNames map[string]bool
}

// ParseHTTPSignature parses a "sig=" value in an [http] section: four
// colon-separated fields, version:headers:absent_headers:expected_software.
func ParseHTTPSignature(raw string) (HTTPSignature, error) {
	f := splitParts(raw, 4, ":")
	rawVersion, rawHeaders, rawAbsent, software := f[0], f[1], f[2], f[3]

	version, err := parseHTTPVersionField(rawVersion)
	if err != nil {
		return HTTPSignature{}, err
	}

	headers, err := parseSigHeaders(rawHeaders)
	if err != nil {
		return HTTPSignature{}, err
	}

	absent := map[string]bool{}
	if rawAbsent != "" {
		for _, name := range strings.Split(rawAbsent, ",") {
			absent[strings.ToLower(name)] = true
		}
	}

	var expected []byte
	if software != "" {
		expected = []byte(software)
	}

	sig := HTTPSignature{
		Version:          version,
		Headers:          headers,
		AbsentHeaders:    absent,
		ExpectedSoftware: expected,
	}
	sig.HeaderNames = make(map[string]bool, len(headers))
	for _, h := range headers {
		if !h.IsOptional {
			sig.HeaderNames[strings.ToLower(h.Name)] = true
		}
	}
	return sig, nil
}

func parseHTTPVersionField(field string) (int, error) {
	switch field {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	case "*":
		return Wildcard, nil
	default:
		return 0, &FieldError{Field: "http_version", Msg: "must be 0, 1 or *, got " + field}
	}
}

// parseSigHeaders splits the header list on commas that aren't inside a
// bracketed value (p0f allows "Name=[a,b,c]" style lists), the way the
// upstream grammar's negative-lookahead comma split does.
func parseSigHeaders(field string) ([]SigHeader, error) {
	if field == "" {
		return nil, nil
	}

	var headers []SigHeader
	depth := 0
	start := 0
	flush := func(end int) error {
		raw := field[start:end]
		if raw == "" {
			return nil
		}
		name, _, value := strings.Cut(raw, "=")
		isOptional := strings.HasPrefix(name, "?")
		if isOptional {
			name = name[1:]
		}
		var v []byte
		if value != "" {
			v = []byte(trimBrackets(value))
		}
		headers = append(headers, SigHeader{Name: name, Value: v, IsOptional: isOptional})
		return nil
	}

	for i, r := range field {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if err := flush(len(field)); err != nil {
		return nil, err
	}
	return headers, nil
}

func trimBrackets(value string) string {
	if len(value) >= 2 && value[0] == '[' && value[len(value)-1] == ']' {
		return value[1 : len(value)-1]
	}
	return value
}
