package features

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"phishguard/internal/fetcher"
	"phishguard/internal/htmldoc"
	"phishguard/internal/similarity"
)

// Content holds the signals derived from the fetched page, its DOM and
// its redirect history. All of it is zero for a page that was not fetched,
// except Robots which comes from a separate robots.txt request.
type Content struct {
	LineOfCode        int
	LargestLineLength int

	HasTitle              bool
	DomainTitleMatchScore float64
	URLTitleMatchScore    bool

	HasFavicon     bool
	HasDescription bool
	Images         int
	Stylesheets    int
	Scripts        int
	IFrames        int
	SelfRefs       int
	EmptyRefs      int
	ExternalRefs   int

	Redirects     int
	SelfRedirects int

	ExternalFormSubmit bool
	SubmitButton       bool
	HiddenFields       bool
	PasswordField      bool

	CopyrightInfo bool
	Popups        int
	Responsive    bool
	Robots        bool
}

// ComputeContent combines the Domain string, the parsed document and the
// fetch outcome. doc must be htmldoc.Empty() when out is a Failure.
func ComputeContent(rawURL, domain string, doc htmldoc.Document, out fetcher.Outcome, robots bool) Content {
	c := Content{Robots: robots}

	var body string
	var hops []fetcher.Hop
	switch o := out.(type) {
	case fetcher.Success:
		body = o.Body
		hops = o.Redirects
	case fetcher.Failure:
	}

	lowerBody := strings.ToLower(body)
	lowerDomain := strings.ToLower(domain)

	// --- Body ---
	c.LineOfCode, c.LargestLineLength = lineMetrics(body)
	c.CopyrightInfo = strings.Contains(lowerBody, "copyright")
	c.Popups = strings.Count(lowerBody, "window.open")
	if lowerDomain != "" {
		c.SelfRefs = strings.Count(lowerBody, lowerDomain)
	}

	// --- Title ---
	if title := doc.Title(); title != "" {
		c.HasTitle = true
		c.DomainTitleMatchScore = similarity.Ratio(domain, title)
		c.URLTitleMatchScore = strings.Contains(strings.ToLower(rawURL), strings.ToLower(title))
	}

	// --- References ---
	c.HasFavicon = doc.HasFavicon()
	c.HasDescription = doc.HasDescription()
	c.Images = doc.Images()
	c.Stylesheets = doc.Stylesheets()
	c.Scripts = doc.Scripts()
	c.IFrames = doc.IFrames()
	c.Responsive = doc.IsResponsive()
	for _, href := range doc.Anchors() {
		if href == "#" {
			c.EmptyRefs++
		}
		if isForeign(href, domain) {
			c.ExternalRefs++
		}
	}

	// --- Redirects ---
	c.Redirects = len(hops)
	if domain != "" {
		for _, h := range hops {
			if strings.Contains(h.URL, domain) {
				c.SelfRedirects++
			}
		}
	}

	// --- Forms ---
	for _, f := range doc.Forms() {
		if isForeign(f.Action, domain) {
			c.ExternalFormSubmit = true
			break
		}
	}
	c.SubmitButton = doc.HasSubmitButton()
	c.HiddenFields = doc.HiddenInputs() > 0
	c.PasswordField = doc.PasswordInputs() > 0

	return c
}

// isForeign reports whether ref is an absolute http(s) URL pointing at a
// host other than domain.
func isForeign(ref, domain string) bool {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	return host != "" && host != strings.ToLower(domain)
}

// lineMetrics counts lines and the longest line (in characters) using the
// same boundaries as Unicode-aware splitlines: \n, \r, \r\n, \v, \f,
// \x1c-\x1e, \x85, U+2028 and U+2029. A trailing terminator does not open
// a new line.
func lineMetrics(body string) (lines, longest int) {
	if body == "" {
		return 0, 0
	}

	current := 0
	open := false
	for i := 0; i < len(body); {
		r, size := utf8.DecodeRuneInString(body[i:])
		i += size

		if isLineBreak(r) {
			if r == '\r' && i < len(body) && body[i] == '\n' {
				i++
			}
			lines++
			longest = max(longest, current)
			current = 0
			open = false
			continue
		}
		current++
		open = true
	}

	if open {
		lines++
		longest = max(longest, current)
	}
	return lines, longest
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
