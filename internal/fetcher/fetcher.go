package fetcher

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultRobotsTimeout = 5 * time.Second
	DefaultMaxRedirects  = 30
	DefaultMaxBodyBytes  = 10 * 1024 * 1024
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	ErrNoURL            = errors.New("no url to fetch")
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Hop is one response that redirected the request elsewhere.
type Hop struct {
	URL        string
	StatusCode int
}

// Outcome is either Success or Failure.
type Outcome interface {
	outcome()
}

type Success struct {
	FinalURL   string
	StatusCode int
	Body       string
	Redirects  []Hop
}

// Failure means the page could not be retrieved at all. It is an expected
// result, not an error of the pipeline.
type Failure struct {
	Reason error
}

func (Success) outcome() {}
func (Failure) outcome() {}

type Options struct {
	Timeout            time.Duration
	RobotsTimeout      time.Duration
	MaxRedirects       int
	MaxBodyBytes       int64
	UserAgent          string
	InsecureSkipVerify bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RobotsTimeout <= 0 {
		o.RobotsTimeout = DefaultRobotsTimeout
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}

type Fetcher struct {
	opts      Options
	transport *http.Transport
}

func New(opts Options) *Fetcher {
	opts = opts.withDefaults()

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		// Phishing kits routinely sit behind self-signed or mismatched certs.
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
		TLSHandshakeTimeout: opts.Timeout,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{opts: opts, transport: tr}
}

// client is built per call so CheckRedirect can record hops for that call only.
func (f *Fetcher) client(timeout time.Duration, hops *[]Hop) *http.Client {
	return &http.Client{
		Transport: f.transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if hops != nil && req.Response != nil {
				*hops = append(*hops, Hop{
					URL:        req.Response.Request.URL.String(),
					StatusCode: req.Response.StatusCode,
				})
			}
			if len(via) > f.opts.MaxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

func (f *Fetcher) newRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, br")
	return req, nil
}

// Fetch downloads target following redirects. Any HTTP status counts as
// Success; only transport-level problems produce Failure.
func (f *Fetcher) Fetch(ctx context.Context, target string) Outcome {
	if target == "" {
		return Failure{Reason: ErrNoURL}
	}

	req, err := f.newRequest(ctx, target)
	if err != nil {
		return Failure{Reason: fmt.Errorf("build request: %w", err)}
	}

	var hops []Hop
	resp, err := f.client(f.opts.Timeout, &hops).Do(req)
	if err != nil {
		return Failure{Reason: err}
	}
	defer resp.Body.Close()

	body, err := f.readBody(resp)
	if err != nil {
		return Failure{Reason: fmt.Errorf("read body: %w", err)}
	}

	return Success{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       body,
		Redirects:  hops,
	}
}

// HasRobots reports whether <origin>/robots.txt answers 200.
func (f *Fetcher) HasRobots(ctx context.Context, origin string) bool {
	if origin == "" {
		return false
	}

	req, err := f.newRequest(ctx, strings.TrimSuffix(origin, "/")+"/robots.txt")
	if err != nil {
		return false
	}

	resp, err := f.client(f.opts.RobotsTimeout, nil).Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	return resp.StatusCode == http.StatusOK
}

func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		r = gz
	case "br":
		r = brotli.NewReader(resp.Body)
	}

	r = io.LimitReader(r, f.opts.MaxBodyBytes)

	utf8Reader, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		// empty body or failed preview read; fall back to the undecoded stream
		utf8Reader = r
	}

	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
