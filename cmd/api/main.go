package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/auth"
	"github.com/gestaozabele/zeladoria/internal/config"
	"github.com/gestaozabele/zeladoria/internal/db"
	internalhttp "github.com/gestaozabele/zeladoria/internal/http"
	"github.com/gestaozabele/zeladoria/internal/obs"
	"github.com/gestaozabele/zeladoria/internal/reference"
	"github.com/gestaozabele/zeladoria/internal/service"
	"github.com/gestaozabele/zeladoria/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	checks := map[string]internalhttp.HealthCheck{}

	var seed store.Seed
	if cfg.SeedFile != "" {
		seed, err = store.LoadSeed(cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info().Str("file", cfg.SeedFile).Int("occurrences", len(seed.Occurrences)).Msg("carga inicial lida")
	}

	var repo store.Repository
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pool.Close()
		checks["db"] = pool.Ping
		repo = store.NewPostgresStore(pool)
	default:
		repo = store.NewMemoryStore(seed.Occurrences)
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	var seq store.Sequence
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }

		redisSeq := store.NewRedisSequence(redisClient)
		if err := redisSeq.Align(ctx, existing); err != nil {
			return fmt.Errorf("redis align: %w", err)
		}
		seq = redisSeq
	} else {
		seq = store.NewMemorySequence(existing)
	}

	metrics := obs.New()
	opts := []service.Option{
		service.WithRecorder(metrics),
		service.WithLogger(log.With().Str("component", "occurrences").Logger()),
		service.WithLocation(cfg.Timezone),
	}
	// sem cadastro de regionais não há como validar a regional informada
	if len(seed.Reference.Regionals) > 0 {
		opts = append(opts, service.WithDirectory(reference.NewDirectory(seed.Reference)))
	}
	svc := service.NewOccurrenceService(repo, seq, opts...)

	handler := internalhttp.NewRouter(internalhttp.Deps{
		Config:   cfg,
		Service:  svc,
		Tokens:   auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL),
		Metrics:  metrics,
		Logger:   log.With().Str("component", "http").Logger(),
		Checks:   checks,
		Location: cfg.Timezone,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("store", cfg.Store).Int("occurrences", len(existing)).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
