package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "go_sitebuilder/api/v1"
	"go_sitebuilder/internal/auth"
	"go_sitebuilder/internal/cache"
	"go_sitebuilder/internal/config"
	"go_sitebuilder/internal/customdomain"
	"go_sitebuilder/internal/db"
	"go_sitebuilder/internal/layout"
	"go_sitebuilder/internal/logging"
	"go_sitebuilder/internal/property"
	"go_sitebuilder/internal/settings"
	"go_sitebuilder/internal/siteconfig"
	"go_sitebuilder/internal/sslcert"
	"go_sitebuilder/internal/tenant"
	"go_sitebuilder/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	iniPath := flag.String("config", "", "path to INI config file (ENV overrides INI)")
	flag.Parse()

	// 1. Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *iniPath != "" {
		cfg, err = config.LoadFromINI(*iniPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info("✓ Configuration loaded")
	auth.InitJWT(cfg.JWT.Secret)

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		logger.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close()
	gdb := db.GetDB()

	if cfg.Migrate {
		if err := db.Migrate(gdb); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Session and challenge stores: redis when running multiple instances
	var (
		sessions   auth.SessionStore
		challenges sslcert.ChallengeStore
	)
	if cfg.Session.Backend == "redis" {
		rdb, err := cache.Open(ctx, cfg.Redis, logging.Component(logger, "redis"))
		if err != nil {
			logger.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer rdb.Close()
		sessions = auth.NewRedisSessionStore(rdb)
		challenges = sslcert.NewRedisChallengeStore(rdb)
	} else {
		mem := auth.NewMemorySessionStore(time.Now)
		go mem.RunSweeper(ctx, time.Duration(cfg.Session.SweepIntervalSec)*time.Second)
		sessions = mem
		challenges = sslcert.NewMemoryChallengeStore(time.Now)
	}
	verifier := auth.NewVerifier(sessions)

	// 4. Layout events over socket.io
	hub := ws.NewHub(gdb, nil, logging.Component(logger, "ws"))
	socketServer := ws.NewServer(hub, verifier)
	go func() {
		if err := socketServer.Serve(); err != nil {
			logger.WithError(err).Error("socket.io server stopped")
		}
	}()
	defer socketServer.Close()

	// 5. Site pipeline
	directory := tenant.NewDirectory(gdb, tenant.Options{
		DevHosts:      cfg.Tenant.DevHosts,
		DemoCompanyID: cfg.Tenant.DemoCompanyID,
	})
	layouts := layout.NewStore(gdb,
		layout.WithMaxRetries(cfg.Publish.MaxRetries),
		layout.WithNotifier(hub),
		layout.WithLogger(logging.Component(logger, "layout-store")),
	)
	settingsStore := settings.NewStore(gdb)
	assembler := siteconfig.NewAssembler(directory, layouts, settingsStore)

	// 6. Custom domains
	var issuer sslcert.Issuer
	if cfg.ACME.Enabled {
		legoIssuer, err := sslcert.NewLegoIssuer(cfg.ACME.Email, cfg.ACME.DirectoryURL,
			sslcert.NewHTTPProvider(challenges), logging.Component(logger, "acme"))
		if err != nil {
			logger.Fatalf("Failed to initialize ACME issuer: %v", err)
		}
		issuer = legoIssuer
	}
	domains := customdomain.NewService(customdomain.Config{
		DB:          gdb,
		Resolver:    customdomain.NewDNSResolver(cfg.DomainWorker.DNSServers, 5*time.Second),
		Issuer:      issuer,
		CNAMETarget: cfg.DomainWorker.CNAMETarget,
		Logger:      logging.Component(logger, "custom-domain"),
	})
	if cfg.DomainWorker.Enabled {
		worker := customdomain.NewWorker(domains, customdomain.WorkerConfig{
			IntervalSec: cfg.DomainWorker.IntervalSec,
			BatchSize:   cfg.DomainWorker.BatchSize,
			Logger:      logging.Component(logger, "custom-domain-worker"),
		})
		worker.Start()
		defer worker.Stop()
	}

	// 7. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	err = v1.SetupRouter(r, v1.Deps{
		Config:     cfg,
		DB:         gdb,
		Logger:     logger,
		Sessions:   sessions,
		Verifier:   verifier,
		Assembler:  assembler,
		Layouts:    layouts,
		Settings:   settingsStore,
		Properties: property.NewService(gdb),
		Domains:    domains,
		Challenges: challenges,
		Socket:     ws.WrapWithAuth(socketServer, verifier),
	})
	if err != nil {
		logger.Fatalf("Failed to setup router: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("✓ Server starting on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
