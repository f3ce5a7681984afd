package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeIdempotent(t *testing.T) {
	list := []string{"a", "b", "a", "c", "b", "a"}
	once := Dedupe(list)
	assert.Equal(t, once, Dedupe(once))
}

func TestDedupePreservesFirstOccurrenceOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Dedupe([]string{"b", "a", "b", "c", "a"}))
}

func TestDedupeEmpty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
	assert.Empty(t, Dedupe([]string{}))
}
