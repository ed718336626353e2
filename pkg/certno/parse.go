package certno

import "strings"

// minLegacySegments is prefix (3) + book + volume + serial + page.
const minLegacySegments = 7

// Parse decodes the legacy hyphenated form. It never fails: input that does not
// carry the office prefix, or has too few segments, yields Default.
//
// Segments after the book are assigned by position. The first is always the
// volume and the last is always the page; the segments between them are
// classified by count and content (see classifyMiddle).
func Parse(s string) Number {
	n := Default()
	if s == "" {
		return n
	}

	parts := strings.Split(s, separator)
	if len(parts) < minLegacySegments ||
		parts[0] != Jurisdiction || parts[1] != SubJurisdiction || parts[2] != Office {
		return n
	}

	if parts[3] != "" {
		n.Book = parts[3]
	}

	rest := parts[4:]
	if len(rest) < 3 {
		return n
	}

	n.Volume = rest[0]
	n.Page = rest[len(rest)-1]
	classifyMiddle(&n, rest[1:len(rest)-1])
	return n
}

// classifyMiddle assigns the segments between volume and page. The branches
// mirror the office's historical transcription rules, including the ones that
// look like accidental fallbacks: with four segments and a leading year the
// fourth segment is dropped.
func classifyMiddle(n *Number, mid []string) {
	switch len(mid) {
	case 0:
	case 1:
		n.Serial = mid[0]
	case 2:
		p1, p2 := mid[0], mid[1]
		switch {
		case IsAlpha(p1):
			n.VolumeLetter, n.Serial = p1, p2
		case IsYear(p1):
			n.VolumeYear, n.Serial = p1, p2
		case IsYear(p2):
			n.Serial, n.SerialYear = p1, p2
		default:
			n.VolumeLetter, n.Serial = p1, p2
		}
	case 3:
		p1, p2, p3 := mid[0], mid[1], mid[2]
		switch {
		case IsAlpha(p1):
			n.VolumeLetter = p1
			if IsYear(p2) {
				n.VolumeYear, n.Serial = p2, p3
			} else {
				n.Serial, n.SerialYear = p2, p3
			}
		case IsYear(p1):
			n.VolumeYear, n.Serial, n.SerialYear = p1, p2, p3
		default:
			n.VolumeLetter, n.Serial, n.SerialYear = p1, p2, p3
		}
	case 4:
		p1, p2, p3, p4 := mid[0], mid[1], mid[2], mid[3]
		switch {
		case IsAlpha(p1):
			n.VolumeLetter, n.VolumeYear, n.Serial, n.SerialYear = p1, p2, p3, p4
		case IsYear(p1):
			// p4 is discarded; confirm with the issuing office before changing.
			n.VolumeYear, n.Serial, n.SerialYear = p1, p2, p3
		default:
			n.VolumeLetter, n.VolumeYear, n.Serial, n.SerialYear = p1, p2, p3, p4
		}
	default:
		n.VolumeLetter, n.VolumeYear, n.Serial, n.SerialYear = mid[0], mid[1], mid[2], mid[3]
	}
}
