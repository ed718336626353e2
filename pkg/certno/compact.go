package certno

import (
	"errors"
	"strings"
)

// ErrUnrecognized is returned by Canonical for input that carries neither
// office prefix, does not decode to anything beyond the default record, or
// names a book outside I..L.
var ErrUnrecognized = errors.New("unrecognized certificate number")

// Form identifies which textual representation a string uses.
type Form string

const (
	FormUnknown Form = "unknown"
	FormLegacy  Form = "legacy"
	FormCompact Form = "compact"
)

// DetectForm classifies s by its prefix alone. The legacy prefix is checked
// first because it is not a prefix of the compact one.
func DetectForm(s string) Form {
	switch {
	case strings.HasPrefix(s, LegacyPrefix):
		return FormLegacy
	case strings.HasPrefix(s, CompactPrefix):
		return FormCompact
	default:
		return FormUnknown
	}
}

// Compact is what can be recovered from a compact-form number. The encoder
// concatenates the numeric fields, so the tail after the book numeral cannot be
// split back into volume, serial and page and is returned as is.
type Compact struct {
	Book string `json:"bookNumber"`
	Tail string `json:"tail"`
}

// ParseCompact matches the compact form: the office prefix, then the longest
// leading run of numeral characters that is a book numeral between I and L.
// It reports false when the prefix or the book is missing.
func ParseCompact(s string) (Compact, bool) {
	rest, ok := strings.CutPrefix(s, CompactPrefix)
	if !ok {
		return Compact{}, false
	}

	run := 0
	for run < len(rest) && strings.IndexByte("IVXL", rest[run]) >= 0 {
		run++
	}
	for ; run > 0; run-- {
		if _, ok := BookOrdinal(rest[:run]); ok {
			return Compact{Book: rest[:run], Tail: rest[run:]}, true
		}
	}
	return Compact{}, false
}

// Canonical derives the compact lookup key for a number in either form.
// Legacy input is parsed and re-encoded; compact input is checked with
// ParseCompact and returned unchanged. Surrounding whitespace is ignored.
func Canonical(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch DetectForm(s) {
	case FormLegacy:
		n := Parse(s)
		if n.IsDefault() {
			return "", ErrUnrecognized
		}
		if _, ok := BookOrdinal(n.Book); !ok {
			return "", ErrUnrecognized
		}
		return Format(n), nil
	case FormCompact:
		if _, ok := ParseCompact(s); !ok {
			return "", ErrUnrecognized
		}
		return s, nil
	default:
		return "", ErrUnrecognized
	}
}
