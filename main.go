package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vehicle_parking/internal/api"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/cache"
	"vehicle_parking/internal/config"
	"vehicle_parking/internal/repository/postgresql"
	"vehicle_parking/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}
	defer db.Close()

	if err := postgresql.RunMigrations(db); err != nil {
		log.Fatalf("could not run migrations: %v", err)
	}
	log.Println("database ready")

	var sessions cache.SessionStore
	if cfg.RedisAddr == "" {
		log.Println("WARNING: REDIS_ADDR not set, sessions are kept in memory and will not survive a restart")
		sessions = cache.NewMemorySessionStore()
	} else {
		sessions, err = cache.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("could not connect to redis: %v", err)
		}
	}
	defer sessions.Close()

	store := postgresql.NewStore(db)

	tokenService := service.NewTokenService(cfg.SecretKey, cfg.TokenMaxAge)
	sessionService := service.NewSessionService(sessions, cfg.SessionTTL)
	authService := service.NewAuthService(store, tokenService)
	lotService := service.NewLotService(store)
	reservationService := service.NewReservationService(store)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdminAccount(bootstrapCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		cancelBootstrap()
		log.Fatalf("could not bootstrap admin account: %v", err)
	}
	cancelBootstrap()

	authMiddleware := middleware.NewAuthMiddleware(tokenService, sessionService, store)

	router := api.SetupRouter(authService, sessionService, lotService, reservationService, authMiddleware)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}
