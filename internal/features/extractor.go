package features

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"phishguard/internal/encoder"
	"phishguard/internal/fetcher"
	"phishguard/internal/htmldoc"
	"phishguard/internal/urlparts"
)

// Source retrieves pages. *fetcher.Fetcher is the production implementation.
type Source interface {
	Fetch(ctx context.Context, target string) fetcher.Outcome
	HasRobots(ctx context.Context, origin string) bool
}

type Extractor struct {
	source  Source
	encoder *encoder.Encoder
}

func NewExtractor(source Source, enc *encoder.Encoder) *Extractor {
	return &Extractor{source: source, encoder: enc}
}

// Extract produces the full vector for rawURL. Network problems only zero
// the content fields; there is no error path.
func (x *Extractor) Extract(ctx context.Context, rawURL string) Vector {
	u := urlparts.Parse(rawURL)

	var (
		out    fetcher.Outcome
		robots bool
		g      errgroup.Group
	)
	g.Go(func() error {
		out = x.source.Fetch(ctx, u.FetchURL())
		return nil
	})
	g.Go(func() error {
		robots = x.source.HasRobots(ctx, u.Origin())
		return nil
	})
	_ = g.Wait()

	if fail, ok := out.(fetcher.Failure); ok {
		log.Debug().Err(fail.Reason).Str("url", rawURL).Msg("page fetch failed, content features zeroed")
	}

	return x.FromOutcome(u, out, robots)
}

// FromOutcome builds the vector of an already parsed URL from its fetched page.
func (x *Extractor) FromOutcome(u urlparts.URL, out fetcher.Outcome, robots bool) Vector {
	domain := u.FullDomain()

	doc := htmldoc.Empty()
	if page, ok := out.(fetcher.Success); ok {
		doc = htmldoc.Parse(page.Body)
	}

	lex := ComputeLexical(u)
	content := ComputeContent(u.Raw, domain, doc, out, robots)

	domainID := x.encoder.Encode(encoder.AxisDomain, domain)
	tldID := x.encoder.Encode(encoder.AxisTLD, u.Suffix)

	return Assemble(u, lex, content, domainID, tldID)
}
