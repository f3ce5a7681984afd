package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdempotent(t *testing.T) {
	refs := []string{
		"https://cdn.example/x.jpg",
		"  https://cdn.example/a%20b.jpg  ",
		"https://cdn.example/a%2520b.jpg",
		"uploads\\listings\\photo.png",
		"https://cdn.example/dir///",
		"%zz-not-decodable",
		"",
	}
	for _, ref := range refs {
		once := Normalize(ref)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", ref)
	}
}

func TestNormalizeCanonicalForms(t *testing.T) {
	assert.Equal(t, "https://cdn.example/a b.jpg", Normalize(" https://cdn.example/a%20b.jpg "))
	assert.Equal(t, "uploads/listings/photo.png", Normalize("uploads\\listings\\photo.png"))
	assert.Equal(t, "https://cdn.example/dir", Normalize("https://cdn.example/dir///"))
}

func TestNormalizeKeepsMalformedInput(t *testing.T) {
	assert.Equal(t, "%zz-not-decodable", Normalize("%zz-not-decodable"))
}

func TestPathOnlyStripsQueryAndFragment(t *testing.T) {
	assert.Equal(t, "https://cdn.example/x.jpg", PathOnly("https://cdn.example/x.jpg?sig=111&exp=9"))
	assert.Equal(t, "https://cdn.example/x.jpg", PathOnly("https://cdn.example/x.jpg#top"))
	assert.Equal(t, "https://cdn.example/x.jpg", PathOnly("https://cdn.example/x.jpg"))
}

func TestMatcherSameExactAndNormalized(t *testing.T) {
	m := Matcher{}
	assert.True(t, m.Same("https://cdn.example/x.jpg", "https://cdn.example/x.jpg"))
	assert.True(t, m.Same("https://cdn.example/a%20b.jpg", "https://cdn.example/a b.jpg"))
	assert.False(t, m.Same("https://cdn.example/x.jpg", "https://cdn.example/y.jpg"))
}

func TestMatcherVolatileHostFallback(t *testing.T) {
	m := Matcher{VolatileHosts: []string{"cdn.example"}}

	// signatures rotate on regeneration for volatile providers
	assert.True(t, m.Same("https://cdn.example/x.jpg?sig=111", "https://cdn.example/x.jpg?sig=222"))
	assert.True(t, m.Same("https://eu.cdn.example/x.jpg?sig=111", "https://eu.cdn.example/x.jpg?sig=222"))

	// same path, different query, host not configured: not the same image
	plain := Matcher{}
	assert.False(t, plain.Same("https://other.example/x.jpg?sig=111", "https://other.example/x.jpg?sig=222"))
}
