/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the promotion eligibility server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Build the logger
  3. Load and validate the policy tables
  4. Start the session store sweeper
  5. Configure the HTTP router and serve

COMMAND-LINE FLAGS:
  -config        Optional YAML/JSON config file (also PROMO_CONFIG)
  -dump-policy   Print the default policy document and exit

ENVIRONMENT:
  Every config key can be overridden with a PROMO_ prefix, e.g.
  PROMO_PORT=9090, PROMO_LOG_LEVEL=debug, PROMO_POLICY_FILE=policy.json.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (shutdown_timeout)
  3. Stop the sweeper
  4. Exit

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - factory/policy.go: Policy document format
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/promotion-engine/api"
	"github.com/warp/promotion-engine/config"
	"github.com/warp/promotion-engine/eligibility"
	"github.com/warp/promotion-engine/factory"
	"github.com/warp/promotion-engine/generic/store"
	"github.com/warp/promotion-engine/log"
)

const application = "promotion-engine"

func main() {
	configPath := flag.String("config", os.Getenv("PROMO_CONFIG"), "config file path")
	dumpPolicy := flag.Bool("dump-policy", false, "print the default policy document and exit")
	flag.Parse()

	if *dumpPolicy {
		doc, err := factory.NewPolicyFactory().DefaultDocument()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(doc))
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, cfg.LogLevel, cfg.LogFile, application, cfg.Environment)

	policy, err := loadPolicy(cfg.PolicyFile)
	if err != nil {
		logger.WithError(err).Fatal("failed to load policy")
	}
	logger.WithFields(logrus.Fields{
		"policy_file": cfg.PolicyFile,
		"grades":      len(policy.Grades),
		"years":       fmt.Sprintf("%d-%d", policy.YearRange.Min, policy.YearRange.Max),
	}).Info("policy loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := store.NewMemory[api.RosterDTO](cfg.SessionTTL)
	go sessions.RunSweeper(ctx, max(cfg.SessionTTL/2, time.Second))

	handler := api.NewHandler(policy, eligibility.NewAggregator(cfg.Workers, logger), sessions, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Addr()).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server stopped")
}

// loadPolicy reads the policy document at path, or falls back to the
// built-in tables when no path is configured.
func loadPolicy(path string) (*eligibility.PolicyTable, error) {
	if path != "" {
		return factory.NewPolicyFactory().LoadFile(path)
	}
	policy := eligibility.DefaultPolicy()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
