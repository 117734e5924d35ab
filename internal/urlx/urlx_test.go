package urlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fragment stripped",
			in:   "https://example.com/a#section",
			want: "https://example.com/a",
		},
		{
			name: "scheme and host lower-cased",
			in:   "HTTPS://Example.com/a#x",
			want: "https://example.com/a",
		},
		{
			name: "query preserved",
			in:   "https://example.com/search?Q=Go&utm_source=chat",
			want: "https://example.com/search?q=go&utm_source=chat",
		},
		{
			name: "port kept as part of host",
			in:   "http://example.com:8080/path",
			want: "http://example.com:8080/path",
		},
		{
			name: "no path",
			in:   "https://example.com",
			want: "https://example.com",
		},
		{
			name: "malformed returned unchanged",
			in:   "http://exa mple.com/%zz",
			want: "http://exa mple.com/%zz",
		},
		{
			name: "not a url returned unchanged",
			in:   "just some text",
			want: "just some text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdenticalForSameResource(t *testing.T) {
	a := Normalize("HTTPS://Example.com/a#x")
	b := Normalize("https://example.com/a")
	assert.Equal(t, a, b)
}

func TestExtract(t *testing.T) {
	text := "check https://foo.com/a#x and (http://bar.org/b) plus no-link text"
	urls := Extract(text)
	assert.Equal(t, []string{"https://foo.com/a#x", "http://bar.org/b"}, urls)
}

func TestSetDeduplicates(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Add("https://foo.com/a#x"))
	assert.False(t, s.Add("https://FOO.com/a"))
	assert.False(t, s.Add("https://foo.com/a#other"))
	assert.True(t, s.Add("https://foo.com/b"))

	assert.Equal(t, 2, s.Len())

	targets := s.Targets()
	// First raw occurrence wins for display.
	assert.Equal(t, "https://foo.com/a#x", targets[0].Raw)
	assert.Equal(t, "https://foo.com/a", targets[0].Normalized)
}
