package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"phishguard/internal/analysis"
	"phishguard/internal/config"
	"phishguard/internal/encoder"
	"phishguard/internal/engine"
	"phishguard/internal/features"
	"phishguard/internal/fetcher"
	"phishguard/internal/inference"
	"phishguard/internal/repository"
)

// app holds everything a command needs. close releases it in reverse order.
type app struct {
	cfg     *config.Config
	db      *repository.DB
	encoder *encoder.Encoder
	engine  *engine.Engine
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp opens storage and builds the pipeline. withModel loads the ONNX
// classifier; failing to load it is logged and the app runs without one.
func newApp(cfg *config.Config, withModel bool) (*app, error) {
	a := &app{cfg: cfg}

	a.db = &repository.DB{}
	if err := a.db.InitDB(cfg.Vocabulary.DBPath); err != nil {
		return nil, fmt.Errorf("could not initialize database: %w", err)
	}
	a.closers = append(a.closers, func() { a.db.Close() })
	log.Info().Str("path", cfg.Vocabulary.DBPath).Msg("database initialized")

	enc, err := encoder.New(a.db)
	if err != nil {
		a.close()
		return nil, err
	}
	a.encoder = enc

	src := fetcher.New(fetcher.Options{
		Timeout:            cfg.Fetch.Timeout(),
		RobotsTimeout:      cfg.Fetch.RobotsTimeout(),
		MaxRedirects:       cfg.Fetch.MaxRedirects,
		MaxBodyBytes:       cfg.Fetch.MaxBodyBytes,
		UserAgent:          cfg.Fetch.UserAgent,
		InsecureSkipVerify: !cfg.Fetch.VerifyTLS,
	})

	// a nil *Predictor must not reach the scanner as a non-nil interface
	var classifier analysis.Classifier
	if withModel {
		if p := a.loadModel(); p != nil {
			classifier = p
		}
	}

	scanner := analysis.NewScanner(features.NewExtractor(src, enc), classifier, a.db)
	a.engine = engine.New(cfg.Lists, scanner)
	return a, nil
}

func (a *app) loadModel() *inference.Predictor {
	if err := inference.InitONNX(a.cfg.Model.LibraryPath); err != nil {
		log.Warn().Err(err).Msg("ONNX init failed, running without a classifier")
		return nil
	}
	a.closers = append(a.closers, inference.CleanupONNX)

	pred, err := inference.NewPredictor(a.cfg.Model.Dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", a.cfg.Model.Dir).Msg("model not loaded, running without a classifier")
		return nil
	}
	a.closers = append(a.closers, pred.Close)
	log.Info().Int("features", len(pred.GetFeatureOrder())).Msg("phishing model loaded")
	return pred
}
