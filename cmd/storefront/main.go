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

	"go_sitebuilder/api/v1/middleware"
	"go_sitebuilder/internal/config"
	"go_sitebuilder/internal/logging"
	"go_sitebuilder/internal/sections"
	"go_sitebuilder/internal/siteclient"
	"go_sitebuilder/internal/siteloader"
	"go_sitebuilder/internal/storefront"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadStorefront()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info("✓ Configuration loaded")

	client := siteclient.New(cfg.APIBaseURL, cfg.RequestTimeout, logging.Component(logger, "site-client"))
	loader := siteloader.New(client, siteloader.Options{
		TTL:     cfg.CacheTTL,
		Timeout: cfg.RequestTimeout,
		Logger:  logging.Component(logger, "site-loader"),
	})

	dispatcher := sections.NewDispatcher(logging.Component(logger, "sections"))
	sections.RegisterDefaults(dispatcher, client)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))
	storefront.NewHandler(loader, dispatcher, cfg.AdminToken, logging.Component(logger, "storefront")).Register(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("✓ Storefront starting on %s (api %s)", cfg.HTTPAddr, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start storefront: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down storefront...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Storefront shutdown failed")
	}
}
