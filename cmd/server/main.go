package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"standings-backend/internal/auth"
	"standings-backend/internal/config"
	"standings-backend/internal/handlers"
	"standings-backend/internal/logging"
	"standings-backend/internal/narrative"
	"standings-backend/internal/session"
	"standings-backend/internal/store"
)

const (
	shutdownTimeout      = 10 * time.Second
	sessionPruneInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cfg.StoreOptions()
	st, err := store.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()
	logger.Info("using " + opts.Describe())

	gate, err := auth.NewGate(auth.GateConfig{
		ViewerSecret:       cfg.Auth.ViewerSecret,
		ViewerSecretHash:   cfg.Auth.ViewerSecretHash,
		OperatorSecret:     cfg.Auth.OperatorSecret,
		OperatorSecretHash: cfg.Auth.OperatorSecretHash,
		VerifyDelay:        cfg.Auth.LoginDelay,
		DevMode:            cfg.DevMode,
	})
	if err != nil {
		return fmt.Errorf("access gate: %w", err)
	}

	var gen narrative.Generator
	if cfg.Narrative.APIKey != "" {
		g, err := narrative.NewGenAIGenerator(ctx, cfg.Narrative.APIKey, cfg.Narrative.Model)
		if err != nil {
			return fmt.Errorf("narrative client: %w", err)
		}
		gen = g
		logger.Info("narrative generator configured", zap.String("model", g.Name()))
	} else {
		logger.Info("no API key set, narrative runs in simulation mode")
	}
	svc := narrative.NewService(gen, cfg.Narrative.SimulationDelay, logger)

	secret := cfg.SessionSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("SESSION_SECRET not set, using a random one; tokens will not survive a restart")
	}
	if cfg.DevMode {
		logger.Warn("DEV_MODE enabled - any viewer key is accepted")
	}

	sessions := session.NewManager(st, auth.TokenTTL, logger)
	h := handlers.New(handlers.Deps{
		Sessions:      sessions,
		Gate:          gate,
		Narrative:     svc,
		Username:      cfg.Username,
		SessionSecret: secret,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h.Router(cfg.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("cors_origin", cfg.CORSOrigin))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, sessionPruneInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
