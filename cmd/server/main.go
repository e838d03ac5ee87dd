package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seragon/config"
	"seragon/internal/cache"
	"seragon/internal/database"
	"seragon/internal/logger"
	"seragon/internal/router"
	"seragon/pkg/cloudinary"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.Server.Env)
	defer logger.Sync()
	log := logger.Log

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	if err := database.SeedCatalog(db); err != nil {
		log.Fatal("seed catalog", zap.Error(err))
	}
	if err := database.SeedAdmin(db, &cfg.Admin); err != nil {
		log.Error("seed admin", zap.Error(err))
	}
	if cfg.Payment.UPIMerchantID == "" {
		log.Warn("UPI_MERCHANT_ID is not set; payment instructions are disabled")
	}

	done := make(chan struct{})
	deps := router.Deps{Done: done}

	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.Warn("redis unavailable; checkout keys served from the database only", zap.Error(err))
		} else {
			defer rdb.Close()
			deps.CheckoutCache = cache.NewCheckoutKeyCache(rdb)
			log.Info("redis checkout key cache enabled")
		}
	}

	if cfg.Cloudinary.CloudName != "" {
		up, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatal("cloudinary", zap.Error(err))
		}
		deps.Uploader = up
	} else {
		log.Warn("cloudinary not configured; payment proof uploads are disabled")
	}

	engine := router.Setup(cfg, db, deps)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	close(done)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
