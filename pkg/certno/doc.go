// Package certno encodes and decodes marriage certificate numbers.
//
// A certificate number identifies an entry in the paper registers of the
// marriage registration office: the book (a roman numeral), the volume with its
// optional letter series and year, the serial with its optional year, and the
// page. Two textual forms exist:
//
//	legacy:  WB-MSD-BRW-I-1-C-16-21
//	compact: WBMSDBRWI1C1621
//
// Parse reads the legacy form, ParseCompact reads what can be recovered from the
// compact form, and Format only ever writes the compact form. Decoding is
// best-effort: unrecognised input degrades to Default rather than failing, since
// the numbers are transcribed by hand from historical ledgers.
//
// All functions are pure and safe for concurrent use.
package certno
