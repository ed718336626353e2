package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 ,a:9092"))
	assert.Empty(t, SplitBrokers(""))
	assert.Empty(t, SplitBrokers(" , "))
}
