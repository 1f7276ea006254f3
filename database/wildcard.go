package database

// Wildcard is the sentinel value for a numeric database field written as
// "*" in the signature grammar: "don't care, matches anything".
const Wildcard = -1

// IsWildcardField reports whether the raw field text is the wildcard token.
func IsWildcardField(raw string) bool {
	return raw == "*"
}
