package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Men", "men"},
		{"Men's", "mens"},
		{"Men’s Shoes", "mens-shoes"},
		{"T-Shirts", "t-shirts"},
		{"  Women  &  Kids ", "women-kids"},
		{"Café Crème", "cafe-creme"},
		{"Áo Thun Đẹp", "ao-thun-dep"},
		{"Size 42/EU", "size-42-eu"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyIsDeterministic(t *testing.T) {
	assert.Equal(t, Slugify("Running Shoes"), Slugify("Running Shoes"))
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "color", FieldKey("Color"))
	assert.Equal(t, "fabric_type", FieldKey("Fabric Type"))
	assert.Equal(t, "size_eu", FieldKey(" Size (EU) "))
}
