package main

import (
	"context"
	"log/slog"
	"os"

	"recipes/config"
	"recipes/internal/delivery"
	"recipes/internal/delivery/http"
	"recipes/internal/delivery/http/cookie"
	"recipes/internal/delivery/http/middleware"
	"recipes/internal/delivery/http/router/handler"
	"recipes/internal/delivery/worker"
	"recipes/internal/domain/repository"
	"recipes/internal/infra/auth"
	logs "recipes/internal/infra/log"
	"recipes/internal/infra/persistence/memory"
	"recipes/internal/infra/persistence/rdb"
	"recipes/internal/usecase/impl"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Logger     *slog.Logger
	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectMiddleware(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		rdb.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			rdb.NewUserRepository,
			rdb.NewRecipeRepository,
			rdb.NewTransactionManager,
			newSessionRepository,
		),
	)
}

// newSessionRepository picks the session store named by session.store.
func newSessionRepository(cfg *config.Config, db *gorm.DB) (repository.SessionRepository, error) {
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		return memory.NewSessionRepository(), nil
	case config.SessionStoreDatabase:
		return rdb.NewSessionRepository(db), nil
	default:
		return nil, errors.Errorf("unsupported session store: %q", cfg.Session.Store)
	}
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewSessionTokenService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewUserService,
			impl.NewSessionService,
			impl.NewRecipeService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			cookie.NewManager,
			middleware.NewErrorMiddleware,
			middleware.NewSessionMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewUserHandler,
			handler.NewRecipeHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// startServer launches every delivery once the database hooks have run.
func startServer(params startServerParams) {
	serveCtx, cancel := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, d := range params.Deliveries {
				go serve(serveCtx, params, d)
			}

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()

			return nil
		},
	})
}

func serve(ctx context.Context, params startServerParams, d delivery.Delivery) {
	if err := d.Serve(ctx); err != nil {
		params.Logger.Error("Failed to start server", slog.Any("error", err))

		// Trigger graceful shutdown to execute all OnStop hooks
		if shutdownErr := params.Shutdown(); shutdownErr != nil {
			params.Logger.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
			os.Exit(1)
		}
	}
}
