package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "a"))
	assert.False(t, ContainsString([]string{}, "a"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
}

func TestContainsStringIgnoreCase(t *testing.T) {
	assert.True(t, ContainsStringIgnoreCase([]string{"Admin", "user"}, "admin"))
	assert.True(t, ContainsStringIgnoreCase([]string{"ADMIN"}, "admin"))
	assert.False(t, ContainsStringIgnoreCase([]string{"administrator"}, "admin"))
	assert.False(t, ContainsStringIgnoreCase([]string{}, "admin"))
}

func TestRandomAlphabetString(t *testing.T) {
	s := RandomAlphabetString(8)
	assert.Len(t, s, 8)
	assert.NotEqual(t, s, RandomAlphabetString(8))
}
