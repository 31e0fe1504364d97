package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/tictactoe-bet/internal/config"
	"github.com/rocketscienceinc/tictactoe-bet/internal/entity"
	"github.com/rocketscienceinc/tictactoe-bet/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-bet/internal/repository"
	"github.com/rocketscienceinc/tictactoe-bet/internal/repository/memory"
	"github.com/rocketscienceinc/tictactoe-bet/internal/repository/postgres"
	"github.com/rocketscienceinc/tictactoe-bet/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-bet/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-bet/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-bet/transport/rest"
)

type eventPublisher interface {
	Publish(ctx context.Context, action string, outcome *entity.Outcome) error
}

// backend - the repositories of the configured storage and how to release them.
// Only redis carries game events, publisher stays nil for the other drivers.
type backend struct {
	users     repository.UserRepository
	games     repository.GameRepository
	publisher eventPublisher
	health    metrics.HealthFunc
	close     func()
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	store, err := openBackend(ctx, log, conf)
	if err != nil {
		return err
	}
	defer store.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	gameUseCase := usecase.NewGameManager(logger, store.users, store.games, store.publisher, recorder,
		tictactoe.RandomCoin{}, conf.Game.StartingBalance)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "storage", conf.Storage)
		server := rest.New(logger, conf.HTTPPort, gameUseCase, recorder, store.health)
		if httpErr := server.Start(ctx); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func openBackend(ctx context.Context, log *slog.Logger, conf *config.Config) (*backend, error) {
	switch conf.Storage {
	case config.DriverPostgres:
		postgresStorage, err := storage.NewPostgresStorage(ctx, conf.Postgres.DSN, conf.Postgres.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("could not connect to postgres storage: %w", err)
		}

		if err = postgresStorage.Init(ctx); err != nil {
			postgresStorage.Close()
			return nil, fmt.Errorf("could not init postgres storage: %w", err)
		}

		store := postgres.New(postgresStorage.Pool)

		return &backend{
			users:  store,
			games:  store.Games(),
			health: postgresStorage.Pool.Ping,
			close:  postgresStorage.Close,
		}, nil

	case config.DriverMemory:
		log.Warn("memory storage keeps nothing across restarts")

		store := memory.New()

		return &backend{
			users:  store,
			games:  store.Games(),
			health: func(context.Context) error { return nil },
			close:  func() {},
		}, nil

	default:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		client := redisStorage.Connection

		return &backend{
			users:     repository.NewUserRepository(client),
			games:     repository.NewGameRepository(client),
			publisher: repository.NewEventPublisher(client, conf.Redis.EventsChannel),
			health:    func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: func() {
				if err := redisStorage.Close(); err != nil {
					log.Error("could not close redis storage", "error", err)
				}
			},
		}, nil
	}
}
