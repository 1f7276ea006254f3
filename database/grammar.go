package database

import (
	"strconv"
	"strings"
)

// splitParts splits data on sep into exactly n parts, the way the p0f
// grammar's colon-separated fields work: missing trailing parts become "",
// and a value containing extra separators is kept whole in the final part
// (strings.SplitN's own trailing-remainder behavior already does this).
func splitParts(data string, n int, sep string) []string {
	parts := strings.SplitN(data, sep, n)
	for len(parts) < n {
		parts = append(parts, "")
	}
	return parts
}

// parseIntInRange parses field as a decimal integer and checks it falls in
// [min, max]; if wildcard is true, "*" parses to Wildcard instead.
func parseIntInRange(field, name string, min, max int, wildcard bool) (int, error) {
	if wildcard && IsWildcardField(field) {
		return Wildcard, nil
	}
	v, err := strconv.Atoi(field)
	if err != nil || v < min || v > max {
		return 0, &FieldError{Field: name, Msg: "value must be in " +
			strconv.Itoa(min) + ".." + strconv.Itoa(max) + ", got " + strconv.Quote(field)}
	}
	return v, nil
}
