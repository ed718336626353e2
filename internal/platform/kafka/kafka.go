// Package kafka holds helpers shared by the producer and consumer packages.
package kafka

import (
	"errors"

	platformstrings "marriage-registry/pkg/platform/strings"
)

// ErrNoBrokers is returned when a client is built without any broker address.
var ErrNoBrokers = errors.New("kafka brokers not configured")

// SplitBrokers parses a comma separated broker list, dropping blanks and
// repeats.
func SplitBrokers(brokers string) []string {
	return platformstrings.SplitList(brokers)
}
