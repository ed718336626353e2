package validation

const (
	// MaxBodySize is the default request body limit (1 MiB).
	MaxBodySize = 1 << 20

	// MaxPartyNameLength bounds each spouse name on a certificate.
	MaxPartyNameLength = 200

	// MaxReasonLength bounds the revocation reason.
	MaxReasonLength = 500

	// DefaultListLimit and MaxListLimit bound admin list pages.
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ClampLimit applies the list page bounds.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
