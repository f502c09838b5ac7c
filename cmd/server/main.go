package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"ride_dispatch/internal/config"
	"ride_dispatch/internal/logger"
	"ride_dispatch/internal/middleware"
	"ride_dispatch/internal/rides"
	"ride_dispatch/internal/routes"
	"ride_dispatch/internal/store"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	// Initialize structured logging
	out := logger.Setup(logger.Options{File: settings.LogFile, Level: settings.LogLevel})
	if settings.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	backend, err := openStore(settings)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open store")
	}

	svc := rides.NewService(backend, rides.SystemClock, rides.Config{
		EventWindow:  settings.EventWindow,
		QueryTimeout: settings.QueryTimeout,
		Pages: rides.PageLimits{
			DefaultSize: settings.DefaultPageSize,
			MaxSize:     settings.MaxPageSize,
		},
	})

	r := routes.SetupRouter(routes.Deps{
		Service:        svc,
		IdentityHeader: settings.IdentityHeader,
		JWTSecret:      []byte(settings.JWTSecret),
		AccessLog:      out,
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(r, settings.IdentityHeader)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + settings.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{"addr": srv.Addr, "store": settings.Store}).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	logrus.Info("server stopped")
}

func openStore(s config.Settings) (rides.Store, error) {
	if s.Store == config.StoreMemory {
		mem := store.NewMemoryStore()
		if s.SeedFile != "" {
			f, err := os.Open(s.SeedFile)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			if err := mem.LoadFixture(f); err != nil {
				return nil, err
			}
		}
		return mem, nil
	}

	db, err := config.InitDB(s)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}
