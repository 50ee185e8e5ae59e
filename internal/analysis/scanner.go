package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"phishguard/internal/features"
	"phishguard/internal/repository"
	"phishguard/internal/urlparts"
)

// ErrNoModel is returned when a verdict needs the classifier and none is loaded.
var ErrNoModel = errors.New("no phishing model loaded")

// Classifier is satisfied by *inference.Predictor.
type Classifier interface {
	Predict(row []float32) (bool, error)
	GetFeatureOrder() []string
}

type VerdictStore interface {
	SaveVerdict(v repository.Verdict) error
}

// Verdict sources.
const (
	SourceModel     = "model"
	SourceBlacklist = "blacklist"
	SourceWhitelist = "whitelist"
)

type Verdict struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	Domain    string          `json:"domain"`
	Phishing  bool            `json:"phishing"`
	Source    string          `json:"source"`
	Features  features.Vector `json:"features,omitempty"`
	ScannedAt time.Time       `json:"scanned_at"`
}

type Scanner struct {
	extractor  *features.Extractor
	classifier Classifier
	store      VerdictStore
}

// NewScanner wires the pipeline. classifier and store may be nil: without a
// classifier Scan still extracts but reports ErrNoModel, without a store
// verdicts are not persisted.
func NewScanner(x *features.Extractor, classifier Classifier, store VerdictStore) *Scanner {
	return &Scanner{extractor: x, classifier: classifier, store: store}
}

func (s *Scanner) HasModel() bool {
	return s.classifier != nil
}

// Extract returns the feature vector of rawURL without classifying it.
func (s *Scanner) Extract(ctx context.Context, rawURL string) features.Vector {
	return s.extractor.Extract(ctx, rawURL)
}

// Scan extracts features for rawURL, classifies them and persists the result.
// The returned Verdict carries the features even when classification fails.
func (s *Scanner) Scan(ctx context.Context, rawURL string) (Verdict, error) {
	v := newVerdict(rawURL, SourceModel)
	v.Features = s.extractor.Extract(ctx, rawURL)

	if s.classifier == nil {
		return v, ErrNoModel
	}

	isPhishing, err := s.classifier.Predict(v.Features.Slice(s.classifier.GetFeatureOrder()))
	if err != nil {
		log.Error().Err(err).Str("scan_id", v.ID).Str("url", rawURL).Msg("prediction failed")
		return v, fmt.Errorf("predict %s: %w", rawURL, err)
	}
	v.Phishing = isPhishing

	if isPhishing {
		log.Warn().Str("scan_id", v.ID).Str("url", rawURL).Str("domain", v.Domain).Msg("phishing detected")
	} else {
		log.Debug().Str("scan_id", v.ID).Str("url", rawURL).Msg("url looks legitimate")
	}

	s.Record(v)
	return v, nil
}

// ListVerdict builds a verdict decided by an operator list, without fetching.
func (s *Scanner) ListVerdict(rawURL, source string, phishing bool) Verdict {
	v := newVerdict(rawURL, source)
	v.Phishing = phishing
	s.Record(v)
	return v
}

// Record persists v. Storage failures are logged, never returned: a verdict
// the caller already has is still valid.
func (s *Scanner) Record(v Verdict) {
	if s.store == nil {
		return
	}
	err := s.store.SaveVerdict(repository.Verdict{
		URL:       v.URL,
		Domain:    v.Domain,
		Phishing:  v.Phishing,
		Source:    v.Source,
		ScannedAt: v.ScannedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("scan_id", v.ID).Msg("verdict write failed")
	}
}

func newVerdict(rawURL, source string) Verdict {
	return Verdict{
		ID:        uuid.NewString(),
		URL:       rawURL,
		Domain:    urlparts.Parse(rawURL).FullDomain(),
		Source:    source,
		ScannedAt: time.Now().UTC(),
	}
}
