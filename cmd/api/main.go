package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"avatarapi/internal/adapter/repo"
	"avatarapi/internal/http/handlers"
	"avatarapi/internal/http/httpapi"
	"avatarapi/internal/infra"
	"avatarapi/internal/infra/geoip"
	"avatarapi/internal/middleware"
	"avatarapi/internal/providers/gemini"
	"avatarapi/internal/service"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	client, err := infra.NewMongoClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect mongodb")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	avatarRepo := repo.NewAvatarRepository(infra.AvatarCollection(client, cfg))

	generator, err := gemini.NewClient(gemini.Options{
		APIKey:         cfg.GoogleAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		Model:          cfg.GeminiModel,
		Logger:         &logger,
		RequestTimeout: cfg.ProviderTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}

	svc := service.NewGeneration(service.NewQuotaGuard(avatarRepo), generator, avatarRepo, &logger)

	app := handlers.NewApp(svc, logger)
	app.StorePing = func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip country fallback disabled")
	} else if resolver != nil {
		lookup = resolver.CountryName
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		CountryLookup:  lookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
