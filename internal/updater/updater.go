package updater

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"phishguard/internal/config"
	"phishguard/internal/encoder"
	"phishguard/internal/repository"
)

// ETagStore remembers the last ETag seen per seed feed.
type ETagStore interface {
	GetETag(source string) string
	UpdateETag(source, etag string) error
}

// Result summarises one seed feed import.
type Result struct {
	Name   string
	Terms  int
	Added  int
	Cached bool
	Err    error
}

// DefaultTimeout applies when Run is given no positive timeout.
const DefaultTimeout = 2 * time.Minute

// Run imports every seed feed into the encoder. Feeds are processed one
// after another so ids are assigned in the same order on every install.
// timeout bounds each download, so a stalled feed cannot hold up startup.
func Run(ctx context.Context, store ETagStore, enc *encoder.Encoder, seeds []config.SeedConfig, timeout time.Duration) []Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	results := make([]Result, 0, len(seeds))
	for _, src := range seeds {
		results = append(results, processSource(ctx, client, store, enc, src))
	}
	return results
}

func processSource(ctx context.Context, client *http.Client, store ETagStore, enc *encoder.Encoder, src config.SeedConfig) Result {
	res := Result{Name: src.Name}
	log.Info().Str("source", src.Name).Str("format", src.Format).Msg("checking seed feed")

	// Name + URL so a repointed feed is downloaded again
	etagKey := src.Name + "_" + src.URL
	currentETag := store.GetETag(etagKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		res.Err = fmt.Errorf("build request: %w", err)
		return res
	}
	if currentETag != "" {
		req.Header.Set("If-None-Match", currentETag)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("source", src.Name).Msg("seed fetch failed")
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		log.Info().Str("source", src.Name).Msg("seed feed up to date")
		res.Cached = true
		return res
	}
	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("seed %s: unexpected status %d", src.Name, resp.StatusCode)
		log.Error().Int("status", resp.StatusCode).Str("source", src.Name).Msg("seed fetch rejected")
		return res
	}

	// read the whole feed first: a download cut short must not assign ids
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("source", src.Name).Msg("seed download aborted")
		res.Err = fmt.Errorf("read seed %s: %w", src.Name, err)
		return res
	}

	termChan := make(chan repository.SeedTerm, 2000)
	go repository.ParseAndStream(bytes.NewReader(body), termChan, src)

	for term := range termChan {
		axis := encoder.Axis(term.Axis)
		res.Terms++
		if _, known := enc.Lookup(axis, term.Value); !known {
			res.Added++
		}
		enc.Encode(axis, term.Value)
	}
	log.Info().Str("source", src.Name).Int("terms", res.Terms).Int("added", res.Added).Msg("seed feed imported")

	if newETag := resp.Header.Get("ETag"); newETag != "" {
		if err := store.UpdateETag(etagKey, newETag); err != nil {
			log.Warn().Err(err).Str("source", src.Name).Msg("failed to store ETag")
		}
	}
	return res
}
