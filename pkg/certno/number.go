package certno

import "regexp"

// Office codes that make up the fixed prefix of every certificate number.
const (
	Jurisdiction    = "WB"
	SubJurisdiction = "MSD"
	Office          = "BRW"

	// LegacyPrefix is the hyphenated prefix, including the trailing separator.
	LegacyPrefix = Jurisdiction + "-" + SubJurisdiction + "-" + Office + "-"
	// CompactPrefix is the prefix token the encoder writes.
	CompactPrefix = Jurisdiction + SubJurisdiction + Office

	// DefaultBook is used whenever the book numeral is missing.
	DefaultBook = "I"

	separator = "-"
)

var (
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
	alphaPattern = regexp.MustCompile(`^[A-Za-z]+$`)
)

// Number is the structured form of a certificate number. Every field is text:
// roman numerals and zero padding must survive a round trip untouched. Absent
// fields are empty strings.
type Number struct {
	Book         string `json:"bookNumber"`
	Volume       string `json:"volumeNumber"`
	VolumeLetter string `json:"volumeLetter"`
	VolumeYear   string `json:"volumeYear"`
	Serial       string `json:"serialNumber"`
	SerialYear   string `json:"serialYear"`
	Page         string `json:"pageNumber"`
}

// Default returns the record produced for empty or unrecognised input.
func Default() Number {
	return Number{Book: DefaultBook}
}

// IsDefault reports whether n carries nothing beyond the default book. Callers
// use it to tell a confident parse from a degraded one.
func (n Number) IsDefault() bool {
	return n == Default()
}

// String returns the compact form of n.
func (n Number) String() string {
	return Format(n)
}

// IsYear reports whether s is exactly four decimal digits.
func IsYear(s string) bool {
	return yearPattern.MatchString(s)
}

// IsAlpha reports whether s is one or more ASCII letters.
func IsAlpha(s string) bool {
	return alphaPattern.MatchString(s)
}
