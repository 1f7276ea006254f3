package database

// Label identifies an MTU/TCP/HTTP signature's OS or application, the
// "label = type:os_class:name:flavor" line in the database grammar.
type Label struct {
	Name      string
	IsGeneric bool
	OSClass   string
	Flavor    string
	// Sys carries the "sys=" line that follows a user-app ("!") label,
	// the CSV of concrete systems the generic label stands in for.
	Sys []string
}

// IsUserApp reports whether the label's OS class is "!", p0f's convention
// for "this is an application signature, not an operating system one" —
// the marker that also triggers fuzzy-match suppression (see match's doc
// comment).
func (l Label) IsUserApp() bool {
	return l.OSClass == "!"
}

// ParseLabel parses a "label=" value into a Label.
func ParseLabel(raw string) (Label, error) {
	parts := splitParts(raw, 4, ":")
	kind, osClass, name, flavor := parts[0], parts[1], parts[2], parts[3]

	generic, err := parseLabelType(kind)
	if err != nil {
		return Label{}, err
	}

	return Label{
		Name:      name,
		IsGeneric: generic,
		OSClass:   osClass,
		Flavor:    flavor,
	}, nil
}

func parseLabelType(field string) (bool, error) {
	switch field {
	case "s":
		return false, nil
	case "g":
		return true, nil
	default:
		return false, &FieldError{Field: "label.type", Msg: "must be s or g, got " + field}
	}
}

// Dump renders the label back to its database line form, "type:class:name:flavor".
func (l Label) Dump() string {
	kind := "s"
	if l.IsGeneric {
		kind = "g"
	}
	return kind + ":" + l.OSClass + ":" + l.Name + ":" + l.Flavor
}

// MTULabel identifies an MTU signature; unlike Label it carries no
// generic/specific or OS-class concept, just a free-form name.
type MTULabel struct {
	Name string
}

// ParseMTULabel parses a "label=" value in an [mtu] section.
func ParseMTULabel(raw string) (MTULabel, error) {
	return MTULabel{Name: raw}, nil
}

// Dump renders the MTU label back to its database line form.
func (l MTULabel) Dump() string {
	return l.Name
}
