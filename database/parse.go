package database

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/passive-fp/p0f/netpkt"
)

// sectionKind identifies which record type a "[...]" section introduces.
type sectionKind uint8

const (
	sectionMTU sectionKind = iota
	sectionTCP
	sectionHTTP
)

// parserState is the line-oriented state machine's current expectation,
// mirroring the upstream parser's NEED_SECTION -> NEED_LABEL -> (NEED_SYS)
// -> NEED_SIG progression.
type parserState uint8

const (
	needSection parserState = iota
	needLabel
	needSys
	needSig
)

// Load reads and parses a p0f signature database file from disk.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DatabaseError{Msg: "can't open database file: " + err.Error()}
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a p0f signature database from r.
func Parse(r io.Reader) (*Store, error) {
	store := NewStore()
	state := needSection
	kind := sectionMTU
	var direction netpkt.Direction
	var haveDirection bool
	var label Label
	var mtuLabel MTULabel

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			k, dir, hasDir, err := parseSectionHeader(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			kind, direction, haveDirection = k, dir, hasDir
			state = needLabel
			continue
		}

		field, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &ParseError{Line: lineNo, Err: &FieldError{Field: "line", Msg: "expected field=value"}}
		}
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)

		switch field {
		case "label":
			if state != needLabel && state != needSig {
				return nil, &ParseError{Line: lineNo, Err: &FieldError{Field: "label", Msg: "misplaced"}}
			}
			if kind == sectionMTU {
				l, err := ParseMTULabel(value)
				if err != nil {
					return nil, &ParseError{Line: lineNo, Err: err}
				}
				mtuLabel = l
			} else {
				l, err := ParseLabel(value)
				if err != nil {
					return nil, &ParseError{Line: lineNo, Err: err}
				}
				label = l
			}
			state = needSig
			if kind != sectionMTU && label.IsUserApp() {
				state = needSys
			}

		case "sys":
			if state != needSys {
				return nil, &ParseError{Line: lineNo, Err: &FieldError{Field: "sys", Msg: "misplaced"}}
			}
			label.Sys = strings.Split(value, ",")
			state = needSig

		case "sig":
			if state != needSig {
				return nil, &ParseError{Line: lineNo, Err: &FieldError{Field: "sig", Msg: "misplaced"}}
			}
			switch kind {
			case sectionMTU:
				sig, err := ParseMTUSignature(value)
				if err != nil {
					return nil, &ParseError{Line: lineNo, Err: err}
				}
				store.addMTU(MTURecord{Label: mtuLabel, Signature: sig, Raw: value, Line: lineNo})

			case sectionTCP:
				if !haveDirection {
					return nil, &ParseError{Line: lineNo, Err: &FieldError{Field: "sig", Msg: "tcp section requires a direction"}}
				}
				sig, err := ParseTCPSignature(value)
				if err != nil {
					return nil, &ParseError{Line: lineNo, Err: err}
				}
				store.addTCP(direction, TCPRecord{Label: label, Signature: sig, Raw: value, Line: lineNo})

			case sectionHTTP:
				if !haveDirection {
					return nil, &ParseError{Line: lineNo, Err: &FieldError{Field: "sig", Msg: "http section requires a direction"}}
				}
				sig, err := ParseHTTPSignature(value)
				if err != nil {
					return nil, &ParseError{Line: lineNo, Err: err}
				}
				store.addHTTP(direction, HTTPRecord{Label: label, Signature: sig, Raw: value, Line: lineNo})
			}

		case "classes", "ua_os":
			// Recognized but not consumed (classes/OS hinting isn't used by
			// matching); skipped the same way the upstream parser does.

		default:
			return nil, &ParseError{Line: lineNo, Err: &FieldError{Field: field, Msg: "unrecognized field"}}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &DatabaseError{Msg: "error reading database: " + err.Error()}
	}

	WARN("loaded %d records", store.Len())
	return store, nil
}

func parseSectionHeader(line string) (sectionKind, netpkt.Direction, bool, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
	name, rawDir, hasDir := strings.Cut(body, ":")

	var kind sectionKind
	switch name {
	case "mtu":
		kind = sectionMTU
	case "tcp":
		kind = sectionTCP
	case "http":
		kind = sectionHTTP
	default:
		return 0, 0, false, &FieldError{Field: "section", Msg: "unrecognized section type " + name}
	}

	if !hasDir {
		return kind, 0, false, nil
	}

	switch rawDir {
	case "request":
		return kind, netpkt.ClientToServer, true, nil
	case "response":
		return kind, netpkt.ServerToClient, true, nil
	default:
		return 0, 0, false, &FieldError{Field: "section", Msg: "unrecognized direction " + rawDir}
	}
}
