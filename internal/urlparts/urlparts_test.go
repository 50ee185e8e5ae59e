package urlparts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_DomainParts(t *testing.T) {
	tests := []struct {
		input      string
		scheme     string
		host       string
		subdomain  string
		domain     string
		suffix     string
		fullDomain string
		subCount   int
	}{
		{"http://a.com?x=1&y=2", "http", "a.com", "", "a", "com", "a.com", 0},
		{"https://www.bbc.co.uk/news", "https", "www.bbc.co.uk", "www", "bbc", "co.uk", "www.bbc.co.uk", 1},
		{"https://Login.Secure.Example.COM:8443/x", "https", "login.secure.example.com", "login.secure", "example", "com", "login.secure.example.com", 2},
		{"example.com/login", "", "example.com", "", "example", "com", "example.com", 0},
		{"https://user.github.io/", "https", "user.github.io", "user", "github", "io", "user.github.io", 1},
		{"http://localhost:8080/", "http", "localhost", "", "localhost", "", "localhost", 0},
		{"http://192.168.1.10/admin", "http", "192.168.1.10", "", "192.168.1.10", "", "192.168.1.10", 0},
		{"http://example.com./", "http", "example.com", "", "example", "com", "example.com", 0},
		{"example.com/redirect?to=http://evil.test", "", "example.com", "", "example", "com", "example.com", 0},
		{"login.example.com/?u=https://evil.test/x", "", "login.example.com", "login", "example", "com", "login.example.com", 1},
	}

	for _, tc := range tests {
		u := Parse(tc.input)
		assert.Equal(t, tc.scheme, u.Scheme, "scheme of %q", tc.input)
		assert.Equal(t, tc.host, u.Host, "host of %q", tc.input)
		assert.Equal(t, tc.subdomain, u.Subdomain, "subdomain of %q", tc.input)
		assert.Equal(t, tc.domain, u.Domain, "domain of %q", tc.input)
		assert.Equal(t, tc.suffix, u.Suffix, "suffix of %q", tc.input)
		assert.Equal(t, tc.fullDomain, u.FullDomain(), "full domain of %q", tc.input)
		assert.Equal(t, tc.subCount, u.NumSubdomains(), "subdomains of %q", tc.input)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "::not-a-url::", "http://", "%%%", "http://[::1", "javascript:alert(1)"} {
		assert.NotPanics(t, func() { Parse(raw) }, "input %q", raw)
	}

	u := Parse("")
	assert.Empty(t, u.Host)
	assert.Empty(t, u.FullDomain())
	assert.Empty(t, u.FetchURL())
	assert.Empty(t, u.Origin())
}

func TestIsDomainIP(t *testing.T) {
	assert.True(t, Parse("http://10.0.0.1/login").IsDomainIP())
	assert.False(t, Parse("http://example.com").IsDomainIP())
	assert.False(t, Parse("").IsDomainIP())
	assert.False(t, Parse("http://[::1]/").IsDomainIP())
}

func TestFetchURLAndOrigin(t *testing.T) {
	u := Parse("example.com/login?next=1")
	assert.Equal(t, "http://example.com/login?next=1", u.FetchURL())
	assert.Equal(t, "http://example.com", u.Origin())

	// an embedded URL in the query is not the scheme
	u = Parse("example.com/redirect?to=http://evil.test")
	assert.Equal(t, "http://example.com/redirect?to=http://evil.test", u.FetchURL())
	assert.Equal(t, "http://example.com", u.Origin())
	assert.Equal(t, "/redirect", u.Path)
	assert.Equal(t, "to=http://evil.test", u.Query)

	u = Parse("https://shop.example.com:8443/cart")
	assert.Equal(t, "https://shop.example.com:8443/cart", u.FetchURL())
	assert.Equal(t, "https://shop.example.com:8443", u.Origin())
	assert.Equal(t, "/cart", u.Path)
}
