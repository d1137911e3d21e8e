package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRawDomain(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare domain", "example.com", "example.com"},
		{"full url", "https://example.com/status", "example.com"},
		{"www stripped", "www.example.com", "example.com"},
		{"url with www", "http://www.example.com", "example.com"},
		{"trailing slash", "example.com/", "example.com"},
		{"whitespace", "  example.com  ", "example.com"},
		{"url with port", "https://example.com:8080/health", "example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractRawDomain(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractRawDomainErrors(t *testing.T) {
	for _, input := range []string{"", "https://", "www."} {
		_, err := ExtractRawDomain(input)
		assert.Error(t, err, "input %q", input)
	}
}
