package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	attendanceevents "github.com/attendly/attendly-backend/internal/attendance/events"
	attendancehandler "github.com/attendly/attendly-backend/internal/attendance/handler"
	attendancerepo "github.com/attendly/attendly-backend/internal/attendance/repository"
	attendanceservice "github.com/attendly/attendly-backend/internal/attendance/service"
	authhandler "github.com/attendly/attendly-backend/internal/auth/handler"
	"github.com/attendly/attendly-backend/internal/auth/jwt"
	authmiddleware "github.com/attendly/attendly-backend/internal/auth/middleware"
	authrepo "github.com/attendly/attendly-backend/internal/auth/repository"
	authservice "github.com/attendly/attendly-backend/internal/auth/service"
	userhandler "github.com/attendly/attendly-backend/internal/user/handler"
	userrepo "github.com/attendly/attendly-backend/internal/user/repository"
	userservice "github.com/attendly/attendly-backend/internal/user/service"
	"github.com/attendly/attendly-backend/pkg/config"
	"github.com/attendly/attendly-backend/pkg/database"
	"github.com/attendly/attendly-backend/pkg/httputil"
	"github.com/attendly/attendly-backend/pkg/logger"
	"github.com/attendly/attendly-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("attendance-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("attendance-service", cfg.Server.Environment)
	log.Info().Msg("starting Attendance Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publishers
	attendancePublisher, err := attendanceevents.NewAttendanceEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create attendance event publisher")
	}

	userPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeUserEvents, "attendance-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create user event publisher")
	}

	// Initialize repositories
	userRepository := userrepo.NewUserRepository(db)
	sessionRepository := authrepo.NewSessionRepository(db)
	attendanceRepository := attendancerepo.NewAttendanceRepository(db)

	// Initialize JWT manager
	jwtManager := jwt.NewManager(&cfg.JWT)

	// Initialize services
	authSvc := authservice.NewAuthService(userRepository, sessionRepository, jwtManager, userPublisher, log)
	userSvc := userservice.NewUserService(userRepository, log)
	attendanceSvc := attendanceservice.NewAttendanceService(attendanceRepository, userRepository, attendancePublisher, &cfg.Workday, log)

	// Initialize handlers
	authHandler := authhandler.NewAuthHandler(authSvc, log)
	userHandler := userhandler.NewUserHandler(userSvc, log)
	attendanceHandler := attendancehandler.NewAttendanceHandler(attendanceSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "attendance-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", authHandler.Routes)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authmiddleware.RequireAuth(jwtManager))

			userHandler.Routes(r)
			r.Route("/attendance", func(r chi.Router) {
				attendanceHandler.Routes(r)

				// Manager-only attendance routes
				r.Group(func(r chi.Router) {
					r.Use(authmiddleware.RequireManager)
					attendanceHandler.ManagerRoutes(r)
				})
			})

			// Manager-only roster routes
			r.Group(func(r chi.Router) {
				r.Use(authmiddleware.RequireManager)
				userHandler.ManagerRoutes(r)
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
