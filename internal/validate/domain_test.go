package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbckr/nsolver/internal/validate"
)

func TestIsDomain(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"example.com", true},
		{"www.example.co.uk", true},
		{"example.com.", true},
		{"_dmarc.example.com", true},
		{"xn--bcher-kva.example", true},
		{"totally-bogus-nonexistent-tld.invalid", true},
		{"localhost", false},
		{"192.0.2.1", false},
		{"-bad.example.com", false},
		{"exa mple.com", false},
		{"", false},
		{strings.Repeat("a.", 127) + "com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validate.IsDomain(tt.in), tt.in)
	}
}

func TestInvalid(t *testing.T) {
	got := validate.Invalid([]string{"example.com", "not a domain", "example.org", "10.0.0.1"})
	assert.Equal(t, []string{"not a domain", "10.0.0.1"}, got)
	assert.Nil(t, validate.Invalid([]string{"example.com"}))
}
