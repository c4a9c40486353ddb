package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/auth"
	"github.com/streamerhub/hub-server-go/internal/config"
	"github.com/streamerhub/hub-server-go/internal/database"
	"github.com/streamerhub/hub-server-go/internal/handler"
	"github.com/streamerhub/hub-server-go/internal/jobs"
	"github.com/streamerhub/hub-server-go/internal/kick"
	"github.com/streamerhub/hub-server-go/internal/middleware"
	"github.com/streamerhub/hub-server-go/internal/redis"
	"github.com/streamerhub/hub-server-go/internal/repository"
	"github.com/streamerhub/hub-server-go/internal/service"
	"github.com/streamerhub/hub-server-go/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	huntRepo := repository.NewBonusHuntRepository(db.DB)
	giveawayRepo := repository.NewGiveawayRepository(db.DB)
	tournamentRepo := repository.NewTournamentRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	kickClient := kick.NewClient(cfg.KickClientID, cfg.KickClientSecret, cfg.KickRedirectURI)
	tokens := auth.NewTokenCodec(cfg.JWTSecret)
	cookies := auth.NewCookies(isProduction)

	oauthService := service.NewOAuthService(kickClient, userRepo, tokens)
	huntService := service.NewBonusHuntService(huntRepo, broker)
	giveawayService := service.NewGiveawayService(db, giveawayRepo, userRepo, broker)
	tournamentService := service.NewTournamentService(tournamentRepo, broker)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	sessionMiddleware := middleware.NewSessionMiddleware(tokens)
	loginRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.LoginRateLimit, config.LoginRateWindow, "login",
	)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(oauthService, cookies, cfg.AppBaseURL)
	huntHandler := handler.NewBonusHuntHandler(huntService)
	giveawayHandler := handler.NewGiveawayHandler(giveawayService)
	tournamentHandler := handler.NewTournamentHandler(tournamentService)
	leaderboardHandler := handler.NewLeaderboardHandler(userRepo)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(sessionMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(loginRateLimit.Handler)
			r.Mount("/", authHandler.Routes())
		})

		// SSE connections outlive the request timeout, so it applies only
		// to the plain API routes.
		r.Get("/events", eventsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

			r.Mount("/bonus-hunts", huntHandler.Routes())
			r.Mount("/giveaways", giveawayHandler.Routes())
			r.Mount("/tournaments", tournamentHandler.Routes())
			r.Get("/leaderboard", leaderboardHandler.ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Mount("/bonus-hunts", huntHandler.AdminRoutes())
				r.Mount("/giveaways", giveawayHandler.AdminRoutes())
				r.Mount("/tournaments", tournamentHandler.AdminRoutes())
			})
		})
	})

	cleanupJob := jobs.NewCleanupJob(giveawayRepo, tournamentRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
