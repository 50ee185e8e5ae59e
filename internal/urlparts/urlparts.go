package urlparts

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// URL is the best-effort decomposition of a raw URL string.
type URL struct {
	Raw    string
	Scheme string
	Host   string
	Port   string
	Path   string
	Query  string

	Subdomain string
	Domain    string
	Suffix    string
}

// schemePrefix matches an explicit scheme at the start only, so a "://" inside
// the path or query of a scheme-less URL does not count.
var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

func hasScheme(s string) bool {
	return schemePrefix.MatchString(s)
}

// Parse never fails. Parts it cannot recover are left empty.
func Parse(raw string) URL {
	u := URL{Raw: raw}
	trimmed := strings.TrimSpace(raw)

	parsed, err := url.Parse(trimmed)
	if err == nil {
		u.Scheme = strings.ToLower(parsed.Scheme)
		u.Path = parsed.Path
		u.Query = parsed.RawQuery
	}

	// "example.com/login" parses as a bare path; retry with a scheme to find the host
	if (err != nil || parsed.Host == "") && !hasScheme(trimmed) {
		retry, rerr := url.Parse("http://" + trimmed)
		if rerr != nil {
			return u
		}
		parsed, err = retry, nil
		u.Path = retry.Path
		u.Query = retry.RawQuery
	}
	if err != nil {
		return u
	}

	u.Host = strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	u.Port = parsed.Port()
	u.Subdomain, u.Domain, u.Suffix = split(u.Host)
	return u
}

func split(host string) (subdomain, domain, suffix string) {
	if host == "" {
		return "", "", ""
	}
	if net.ParseIP(host) != nil {
		return "", host, ""
	}

	suffix = icannSuffix(host)
	rest := host
	if suffix != "" {
		if suffix == host {
			return "", "", suffix
		}
		rest = strings.TrimSuffix(host, "."+suffix)
	}

	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		return rest[:i], rest[i+1:], suffix
	}
	return "", rest, suffix
}

// icannSuffix returns the ICANN public suffix of host. Private suffixes
// fold back to their ICANN parent and unlisted TLDs yield "".
func icannSuffix(host string) string {
	suffix, icann := publicsuffix.PublicSuffix(host)
	for !icann {
		i := strings.IndexByte(suffix, '.')
		if i < 0 {
			return ""
		}
		suffix, icann = publicsuffix.PublicSuffix(suffix[i+1:])
	}
	return suffix
}

// FullDomain joins subdomain, domain and suffix with dots, skipping empty parts.
func (u URL) FullDomain() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.Subdomain, u.Domain, u.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// IsDomainIP reports whether the domain label, dots removed, is all digits.
func (u URL) IsDomainIP() bool {
	d := strings.ReplaceAll(u.Domain, ".", "")
	if d == "" {
		return false
	}
	for _, c := range d {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (u URL) NumSubdomains() int {
	if u.Subdomain == "" {
		return 0
	}
	return len(strings.Split(u.Subdomain, "."))
}

// FetchURL is the address to request: the raw URL with http:// added when
// no scheme was given. Empty when there is no host to contact.
func (u URL) FetchURL() string {
	if u.Host == "" {
		return ""
	}
	raw := strings.TrimSpace(u.Raw)
	if !hasScheme(raw) {
		return "http://" + raw
	}
	return raw
}

func (u URL) Origin() string {
	if u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme != "http" && scheme != "https" {
		scheme = "http"
	}
	host := u.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if u.Port != "" {
		host += ":" + u.Port
	}
	return scheme + "://" + host
}
