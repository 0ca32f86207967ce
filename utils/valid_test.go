package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Men's Shoes", NormalizeName("  Men's \t Shoes\n"))
	assert.Equal(t, "a b", NormalizeName("a\x00b"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeValues(t *testing.T) {
	assert.Equal(t, []string{"Red", "Blue"}, NormalizeValues([]string{" Red", "", "Blue", "Red "}))
	assert.NotNil(t, NormalizeValues(nil))
	assert.Empty(t, NormalizeValues(nil))
}
