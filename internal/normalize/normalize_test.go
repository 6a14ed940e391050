package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/madx/backlinkd/internal/normalize"
)

func TestURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"scheme stripped", "https://example.com", "example.com"},
		{"http scheme stripped", "http://example.com", "example.com"},
		{"www stripped", "https://www.example.com", "example.com"},
		{"trailing slash stripped", "https://example.com/", "example.com"},
		{"query stripped", "https://example.com/page?utm=1", "example.com/page"},
		{"fragment stripped", "https://example.com/page#top", "example.com/page"},
		{"query then slash", "https://example.com/page/?utm=1", "example.com/page"},
		{"case folded", "HTTPS://Example.COM/Page", "example.com/page"},
		{"bare domain untouched", "example.com/page", "example.com/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.URL(tt.in))
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"case folded", "Click Here", "click here"},
		{"whitespace collapsed", "click\t\n  here ", "click here"},
		{"already normal", "click here", "click here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Text(tt.in))
		})
	}
}

func TestIdempotence(t *testing.T) {
	urls := []string{
		"https://www.Example.com/Page/?q=1#frag",
		"example.com",
		"",
		"http://site.com/a/b/",
	}
	for _, u := range urls {
		once := normalize.URL(u)
		assert.Equal(t, once, normalize.URL(once), "URL not idempotent for %q", u)
	}

	texts := []string{"  Some   Anchor\tText ", "", "plain"}
	for _, s := range texts {
		once := normalize.Text(s)
		assert.Equal(t, once, normalize.Text(once), "Text not idempotent for %q", s)
	}
}
