package engine

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"phishguard/internal/analysis"
	"phishguard/internal/config"
	"phishguard/internal/features"
	"phishguard/internal/urlparts"
)

var ErrUninitialized = errors.New("engine uninitialized")

// Engine answers "is this URL phishing". Operator lists are consulted first,
// everything else goes through the scanner with concurrent scans of the same
// URL collapsed into one.
type Engine struct {
	blocked *DomainTrie
	allowed *DomainTrie
	scanner *analysis.Scanner
	scans   singleflight.Group
}

func New(lists config.ListsConfig, scanner *analysis.Scanner) *Engine {
	e := &Engine{
		blocked: NewDomainTrie(),
		allowed: NewDomainTrie(),
		scanner: scanner,
	}
	e.blocked.BulkInsert(lists.Blacklist)
	e.allowed.BulkInsert(lists.Whitelist)

	log.Info().Int("blacklist", e.blocked.Len()).Int("whitelist", e.allowed.Len()).Msg("operator lists loaded")
	return e
}

// HasModel reports whether unlisted URLs can be classified.
func (e *Engine) HasModel() bool {
	return e.scanner != nil && e.scanner.HasModel()
}

// Decision returns the verdict for rawURL. The whitelist wins over the
// blacklist so an operator can carve exceptions out of a blocked parent.
func (e *Engine) Decision(ctx context.Context, rawURL string) (analysis.Verdict, error) {
	if e.scanner == nil || e.blocked == nil {
		return analysis.Verdict{}, ErrUninitialized
	}

	host := urlparts.Parse(rawURL).Host
	switch {
	case e.allowed.Match(host):
		return e.scanner.ListVerdict(rawURL, analysis.SourceWhitelist, false), nil
	case e.blocked.Match(host):
		return e.scanner.ListVerdict(rawURL, analysis.SourceBlacklist, true), nil
	}

	// the shared scan must not die with whichever caller started it
	scanCtx := context.WithoutCancel(ctx)
	res, err, shared := e.scans.Do(rawURL, func() (any, error) {
		return e.scanner.Scan(scanCtx, rawURL)
	})
	if shared {
		log.Debug().Str("url", rawURL).Msg("joined in-flight scan")
	}

	v, _ := res.(analysis.Verdict)
	return v, err
}

// Extract exposes the scanner's feature extraction for callers that only want
// the vector.
func (e *Engine) Extract(ctx context.Context, rawURL string) (features.Vector, error) {
	if e.scanner == nil {
		return nil, ErrUninitialized
	}
	return e.scanner.Extract(ctx, rawURL), nil
}
