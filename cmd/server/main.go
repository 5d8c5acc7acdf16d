// cmd/server/main.go
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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/config"
	"github.com/codr1/Trainyard/internal/db"
	"github.com/codr1/Trainyard/internal/email"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/ratelimit"
	"github.com/codr1/Trainyard/internal/scheduler"
)

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.App.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func main() {
	defaultConfigPath := "config/config.yaml"
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		defaultConfigPath = path
	}
	configPath := flag.String("config", defaultConfigPath, "Path to YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := buildDependencies(ctx, cfg, database)
	defer deps.close()

	if cfg.Features.EnableScheduler {
		if err := startScheduler(cfg, deps); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}()
	}

	server := newServer(cfg, deps)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

// dependencies holds the optional integrations. Each one degrades to a
// no-op when it is not configured or cannot be reached at startup.
type dependencies struct {
	db        *db.DB
	publisher events.Publisher
	store     cache.Store
	sender    email.EmailSender
	limiter   *ratelimit.Limiter
}

func buildDependencies(ctx context.Context, cfg *config.Config, database *db.DB) *dependencies {
	deps := &dependencies{
		db:        database,
		publisher: events.Discard{},
	}

	if cfg.Email.Enabled() {
		client, err := email.NewSESClient(ctx, cfg.Email)
		if err != nil {
			log.Warn().Err(err).Msg("Email disabled: failed to create SES client")
		} else {
			deps.sender = client
		}
	} else {
		log.Info().Msg("Email disabled: SES not configured")
	}

	if cfg.Events.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("Events disabled: failed to connect to broker")
		} else {
			deps.publisher = publisher
		}
	} else {
		log.Info().Msg("Events disabled: AMQP_URL not set")
	}

	if cfg.Cache.Addr != "" {
		store, err := cache.NewRedisStore(ctx, cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("Caching disabled: failed to connect to redis")
		} else {
			deps.store = store
		}
	} else {
		log.Info().Msg("Caching disabled: cache address not set")
	}

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.Cooldown = cfg.Checkin.Cooldown
	deps.limiter = ratelimit.New(limiterCfg)

	return deps
}

func (d *dependencies) close() {
	d.limiter.Close()
	if err := d.publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close event publisher")
	}
	if closer, ok := d.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close cache")
		}
	}
}

func startScheduler(cfg *config.Config, deps *dependencies) error {
	if err := scheduler.Init(); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if err := scheduler.RegisterMaintenanceJobs(deps.db, deps.store, cfg.Scheduler); err != nil {
		return fmt.Errorf("register maintenance jobs: %w", err)
	}
	if err := scheduler.RegisterReminderJobs(deps.db, deps.sender, cfg.Scheduler); err != nil {
		return fmt.Errorf("register reminder jobs: %w", err)
	}
	return scheduler.Start()
}
