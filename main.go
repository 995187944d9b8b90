// Command weather-api-go serves the weather station API: user accounts,
// token-based authentication and the weather reading catalog, all backed by
// MongoDB. Startup connects to the store before serving and exits non-zero if
// it cannot; shutdown drains in-flight requests before disconnecting.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/user/weather-api-go/auth"
	"github.com/user/weather-api-go/config"
	"github.com/user/weather-api-go/db"
	"github.com/user/weather-api-go/readings"
	"github.com/user/weather-api-go/users"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg(".env file not found or not readable")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	client, err := db.Connect(context.Background(), cfg.Mongo, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	database := client.Database()
	userStore := auth.NewMongoUserStore(database)
	readingStore := readings.NewMongoStore(database)

	authHandlers := auth.NewHandlers(auth.NewService(userStore))
	userHandlers := users.NewHandlers(users.NewService(userStore))
	readingHandlers := readings.NewHandlers(readings.NewService(readingStore))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/logout", authHandlers.HandleLogout())
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(auth.RequireRole(userStore, auth.RoleTeacher))

		r.Get("/", userHandlers.HandleListAll())
		r.Get("/{id}", userHandlers.HandleGetByID())
		r.Post("/create-user", userHandlers.HandleCreate())
		r.Patch("/update-user/{id}", userHandlers.HandleUpdateByID())
		r.Patch("/update-role", userHandlers.HandleUpdateRole())
		r.Delete("/delete-user/{id}", userHandlers.HandleDeleteByID())
		r.Delete("/delete-students", userHandlers.HandleDeleteStudents())
	})

	r.Route("/weather-reading", func(r chi.Router) {
		// Read endpoints are open but pass through the access recorder;
		// writes are gated per role.
		recorder := auth.RecordStudentAccess(userStore, logger)

		r.Group(func(r chi.Router) {
			r.Use(recorder)
			r.Get("/", readingHandlers.HandleList())
			r.Get("/by-device", readingHandlers.HandleListByDevice())
			r.Get("/max-precipitation", readingHandlers.HandleMaxPrecipitation())
			r.Get("/weather-data", readingHandlers.HandleReadingsAt())
			r.Get("/max-temperature", readingHandlers.HandleMaxTemperature())
			r.Get("/{id}", readingHandlers.HandleGetByID())
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userStore, auth.RoleStation, auth.RoleTeacher))
			r.Post("/", readingHandlers.HandleInsert())
			r.Post("/insert-readings", readingHandlers.HandleInsertMany())
			r.Patch("/update-precipitation", readingHandlers.HandleUpdatePrecipitation())
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userStore, auth.RoleTeacher))
			r.Delete("/delete", readingHandlers.HandleDelete())
		})
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Fatal().Err(err).Msg("server error")
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := client.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("store disconnect failed")
	}
	logger.Info().Msg("shutdown complete")
}
