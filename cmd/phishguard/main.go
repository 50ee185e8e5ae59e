package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"phishguard/internal/config"
	"phishguard/internal/logger"
	"phishguard/internal/updater"
	"phishguard/internal/web"
)

var (
	configFile string
	logLevel   string
	seedFirst  bool
	noModel    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "phishguard",
	Short:         "Phishing URL feature extraction and classification",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			loaded.App.LogLevel = logLevel
		}
		if err := logger.Init(logger.Options{Level: loaded.App.LogLevel, File: loaded.App.LogFile}); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		cfg = loaded
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the submission form and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, true)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if seedFirst {
			updater.Run(ctx, a.db, a.encoder, cfg.Vocabulary.Seeds, cfg.Vocabulary.SeedTimeout())
		}

		if cfg.App.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		handler := &web.Handler{Decider: a.engine}
		if cfg.App.ScanRate > 0 {
			handler.Limiter = rate.NewLimiter(rate.Limit(cfg.App.ScanRate), max(cfg.App.ScanBurst, 1))
		}
		srv := &http.Server{
			Addr:              cfg.App.ListenAddr,
			Handler:           web.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errChan := make(chan error, 1)
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("phishguard is listening")
			errChan <- srv.ListenAndServe()
		}()

		select {
		case err := <-errChan:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stopped: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("received shutdown signal, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Print the feature vector of a URL as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		vec, err := a.engine.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, vec)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Classify a URL and print the verdict as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, !noModel)
		if err != nil {
			return err
		}
		defer a.close()

		v, err := a.engine.Decision(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, v)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import the configured Domain/TLD vocabulary feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		if len(cfg.Vocabulary.Seeds) == 0 {
			log.Warn().Msg("no seed feeds configured")
			return nil
		}

		var failed int
		for _, res := range updater.Run(cmd.Context(), a.db, a.encoder, cfg.Vocabulary.Seeds, cfg.Vocabulary.SeedTimeout()) {
			switch {
			case res.Err != nil:
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %v\n", res.Name, res.Err)
			case res.Cached:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: up to date\n", res.Name)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d terms, %d new\n", res.Name, res.Terms, res.Added)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d seed feed(s) failed", failed)
		}
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: search configs/config.yaml, ./config.yaml, /etc/phishguard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override app.log_level")

	serveCmd.Flags().BoolVar(&seedFirst, "seed", false, "import seed feeds before serving")
	scanCmd.Flags().BoolVar(&noModel, "no-model", false, "skip loading the classifier (operator lists only)")

	rootCmd.AddCommand(serveCmd, extractCmd, scanCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("phishguard failed")
		os.Exit(1)
	}
}
