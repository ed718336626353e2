package service

import (
	"strings"

	"marriage-registry/internal/certificate/models"
	"marriage-registry/pkg/certno"
)

// Decode turns a raw certificate number into the structured fields used to
// pre-populate the certificate form. It never fails: unrecognised input yields
// the default record with Defaulted set. Compact input only recovers the book;
// the rest of it is returned as the undivided tail.
func (s *Service) Decode(raw string) *models.Decoded {
	raw = strings.TrimSpace(raw)
	d := &models.Decoded{Form: certno.DetectForm(raw)}

	switch d.Form {
	case certno.FormLegacy:
		d.Number = certno.Parse(raw)
		d.Defaulted = d.Number.IsDefault()
	case certno.FormCompact:
		if c, ok := certno.ParseCompact(raw); ok {
			d.Number = certno.Number{Book: c.Book}
			d.Compact = &c
		} else {
			d.Number = certno.Default()
			d.Defaulted = true
		}
	default:
		d.Number = certno.Default()
		d.Defaulted = true
	}

	if canonical, err := certno.Canonical(raw); err == nil {
		d.Canonical = canonical
	}
	return d
}

// Preview renders the compact number for a partially filled form.
func (s *Service) Preview(n certno.Number) string {
	return certno.Format(n)
}

// Books lists the selectable book numerals.
func (s *Service) Books() []certno.Book {
	return certno.Books()
}
