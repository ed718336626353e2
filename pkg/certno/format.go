package certno

import "strings"

// Format encodes n in the compact form: the office prefix followed by every
// non-empty field, with no separators. An empty book is written as "I".
//
// Format returns "" when nothing but the prefix would be written. Since the
// book always defaults to a non-empty numeral that case cannot occur through
// this function; Format(Number{}) is "WBMSDBRWI".
func Format(n Number) string {
	book := n.Book
	if book == "" {
		book = DefaultBook
	}

	parts := []string{CompactPrefix}
	for _, field := range []string{book, n.Volume, n.VolumeLetter, n.VolumeYear, n.Serial, n.SerialYear, n.Page} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	if len(parts) == 1 {
		return ""
	}
	return strings.Join(parts, "")
}
