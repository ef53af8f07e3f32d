package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	valid := map[string]string{
		"300":         "300",
		"149.90":      "149.9",
		"0.01":        "0.01",
		" 12,5 ":      "12.5",
		"99999999.99": "99999999.99",
	}
	for in, want := range valid {
		d, err := parsePrice(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, d.String(), in)
		}
	}

	for _, in := range []string{"", "0", "-1", "1.001", "100000000", "abc", "1e3x"} {
		_, err := parsePrice(in)
		assert.Error(t, err, in)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "validation failed: a: one; b: two", err.Error())
}

func TestValidationErrorFirst(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "three", "price": "two", "category": "one"}}
	for range 20 {
		assert.Equal(t, "one", err.First())
	}
	assert.Empty(t, (&ValidationError{}).First())
}
