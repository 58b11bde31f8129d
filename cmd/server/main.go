package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cleanco/platform/internal/adminsafety"
	"github.com/cleanco/platform/internal/auth"
	"github.com/cleanco/platform/internal/booking"
	"github.com/cleanco/platform/internal/chat"
	"github.com/cleanco/platform/internal/config"
	"github.com/cleanco/platform/internal/httpapi"
	"github.com/cleanco/platform/internal/jobs"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/internal/photos"
	"github.com/cleanco/platform/internal/pricing"
	"github.com/cleanco/platform/internal/ratelimit"
	"github.com/cleanco/platform/internal/scheduler"
	"github.com/cleanco/platform/internal/storage"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/logging"
)

func main() {
	// 1. config
	configPath := os.Getenv("CLEANCO_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}

	// 2. logger
	log, err := logging.New(logging.Config{
		Level:       cfg.Logs.LogLevel,
		StdoutOnly:  cfg.Logs.StdoutOnly,
		LogPath:     cfg.Logs.LogPath,
		Development: cfg.Service.Env != "production",
	})
	if err != nil {
		panic(fmt.Sprintf("build logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting", zap.String("service", cfg.Service.Name), zap.String("env", cfg.Service.Env))

	// 3. database + redis
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbs, err := store.Open(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	db := dbs.Postgres

	// 4. signing keys, auth service, tenant resolver
	keys, err := auth.LoadKeyPair(cfg.Secrets.JWTSigningKey, cfg.Secrets.JWTPublicKey)
	if err != nil {
		log.Fatal("load signing keys", zap.Error(err))
	}
	authService := auth.NewService(keys, store.Users{}, store.Sessions{}, cfg.Authn.AccessTokenTTL, cfg.Authn.RefreshTokenTTL)
	resolver := &tenant.Resolver{
		Keys:           keys,
		AdminUser:      cfg.Secrets.AdminBasicUser,
		AdminPassword:  cfg.Secrets.AdminBasicPassword,
		WorkerTokenKey: cfg.Secrets.WorkerTokenKey,
		Env:            cfg.Service.Env,
		Logger:         log,
	}

	// 5. admin safety: IP allowlist, break-glass, idempotency
	breakGlass := adminsafety.NewBreakGlass(cfg.Secrets.BreakGlassSecret, cfg.Admin.BreakGlassTTL)
	gate, err := adminsafety.NewGate(cfg.Admin.IPAllowlist, breakGlass)
	if err != nil {
		log.Fatal("build admin gate", zap.Error(err))
	}
	gate.SetReadOnly(cfg.Admin.ReadOnly)

	// 6. rate limiter
	rlStore := ratelimit.NewFailOpenStore(ratelimit.NewRedisStore(dbs.Redis), log)
	limiter, err := ratelimit.New(rlStore, cfg.RateLimit.PerMinute, cfg.RateLimit.TrustedProxies)
	if err != nil {
		log.Fatal("build rate limiter", zap.Error(err))
	}

	// 7. object storage
	storeCtx, storeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	gateway, err := storage.New(storeCtx, &cfg.Storage)
	storeCancel()
	if err != nil {
		log.Fatal("build storage gateway", zap.Error(err))
	}
	photosService := photos.NewService(gateway, cfg.Storage.Backend, cfg.Storage.Photo)

	// 8. payments
	checkout := booking.NewCheckoutFactory(&cfg.Payment)
	webhooks := booking.NewWebhookProcessor(&cfg.Payment, log)

	// 9. pricing and chat collaborators (deterministic local stand-ins until
	// a real pricing engine / intent parser is wired behind the contract)
	pricingConfig := pricing.NewConfigStore(nil)
	featureFlags := config.NewFeatureFlags()

	// 10. outbox drainer, one handler per kind
	drainer := outbox.NewDrainer(db, log, hostname(), 30*time.Second)
	drainer.Register(outbox.KindEmail, outbox.EmailHandler(&cfg.Email))
	drainer.Register(outbox.KindExportWebhook, outbox.ExportWebhookHandler(&cfg.Export))
	drainer.Register(outbox.KindIntegrationEvent, outbox.IntegrationEventHandler())
	drainer.Register(outbox.KindStorageDelete, outbox.StorageDeleteHandler(gateway))

	// 11. scheduler: outbox drain, booking sweep, reminders, retention. The
	// outbox drain covers KindStorageDelete retries too, so there's no
	// separate storage janitor — deletion is DB-row-first, and the only
	// durable work left after the row is gone is the outbox's own retry.
	sup := scheduler.NewSupervisor(db, log)
	sup.Register(scheduler.Job{Name: "outbox_drain", Interval: 5 * time.Second, Timeout: 20 * time.Second, Run: jobs.OutboxDrain(drainer, 50)})
	sup.Register(scheduler.Job{Name: "booking_sweep", Interval: time.Minute, Timeout: 30 * time.Second, Run: jobs.BookingSweep(cfg.Payment.DepositWindow)})
	sup.Register(scheduler.Job{Name: "email_reminders", Interval: 5 * time.Minute, Timeout: time.Minute, Run: jobs.EmailReminders()})
	sup.Register(scheduler.Job{Name: "retention_cleanup", Interval: time.Hour, Timeout: 5 * time.Minute, Run: jobs.RetentionCleanup(&cfg.Retention, log)})
	sup.Start()

	// 12. HTTP server
	deps := &httpapi.Deps{
		Config:        cfg,
		Log:           log,
		DB:            db,
		Auth:          authService,
		Keys:          keys,
		Resolver:      resolver,
		Gate:          gate,
		BreakGlass:    breakGlass,
		Limiter:       limiter,
		Storage:       gateway,
		Webhooks:      webhooks,
		Photos:        photosService,
		Pricing:       pricing.LocalEvaluator{},
		PricingConfig: pricingConfig,
		FeatureFlags:  featureFlags,
		Chat:          chat.LocalParser{},
		Checkout:      checkout,
	}
	e := httpapi.NewEcho(deps)

	go func() {
		addr := ":" + cfg.Service.HTTPPort
		log.Info("http server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	// 13. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	sup.Stop(cfg.Jobs.DrainBudget)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}

	log.Info("shutdown complete")
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "cleanco-server"
	}
	return h
}
