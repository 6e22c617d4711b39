package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGravatarURLNormalizesEmail(t *testing.T) {
	a := GravatarURL("  Fred@Example.com ", 80)
	b := GravatarURL("fred@example.com", 80)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "https://www.gravatar.com/avatar/"))
	assert.True(t, strings.HasSuffix(a, "?s=80&d=mp"))
}

func TestGravatarURLDefaultSize(t *testing.T) {
	assert.Contains(t, GravatarURL("x@example.com", 0), "?s=200&")
}
