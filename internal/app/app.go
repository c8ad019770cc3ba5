package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/app/config"
	apphttp "reseller-ops/go_backend/internal/app/http"
	"reseller-ops/go_backend/internal/app/http/handlers"
	"reseller-ops/go_backend/internal/domain/circuit"
	"reseller-ops/go_backend/internal/domain/commission"
	"reseller-ops/go_backend/internal/domain/notify"
	"reseller-ops/go_backend/internal/domain/quote"
	"reseller-ops/go_backend/internal/domain/quote/pdf"
	pdfgen "reseller-ops/go_backend/internal/domain/quote/pdf/gofpdf"
	"reseller-ops/go_backend/internal/infra/db/postgres"
	"reseller-ops/go_backend/internal/infra/ratelimit"
	"reseller-ops/go_backend/internal/infra/supabase"
)

const shutdownTimeout = 10 * time.Second

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()

	limiter, closeLimiter := newLimiter(cfg, log)
	defer closeLimiter()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apphttp.NewRouter(cfg, newHandlers(cfg, db, log), limiter, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema applied")
	return nil
}

func newHandlers(cfg config.Config, db *postgres.DB, log *zap.Logger) *handlers.Handlers {
	var notifier notify.Notifier = notify.Log{Logger: log.Named("notify")}
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.Multi{notifier, notify.NewWebhook(cfg.NotifyWebhookURL, nil)}
	}

	agents := postgres.AgentRepo{DB: db}
	resolver := commission.NewResolver(agents, agents)
	quotes := quote.NewService(postgres.QuoteRepo{DB: db}, resolver, notifier, log.Named("quote"))
	tracker := circuit.NewTracker(postgres.CircuitRepo{DB: db}, notifier, log.Named("circuit"))

	gen := pdfgen.New(cfg.CompanyName)
	gen.FontDir = cfg.PDFFontDir
	pdfs := &pdf.Service{
		Quotes:    quotes,
		Generator: gen,
		Bucket:    cfg.QuotePDFBucket,
		Log:       log.Named("pdf"),
	}
	if cfg.StorageEnabled() {
		pdfs.Storage = supabase.NewStorage(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
	} else {
		log.Warn("supabase storage not configured; pdf archiving disabled")
	}

	return &handlers.Handlers{
		Quotes:     quotes,
		PDF:        pdfs,
		Commission: resolver,
		Agents:     agents,
		Circuits:   tracker,
		DB:         db,
		Log:        log,
	}
}

// newLimiter picks Redis when configured, otherwise a per-process window.
// A zero rate disables limiting.
func newLimiter(cfg config.Config, log *zap.Logger) (ratelimit.Limiter, func()) {
	if cfg.RateLimitPerMinute == 0 {
		return nil, func() {}
	}
	if cfg.RedisAddr != "" {
		r := ratelimit.NewRedis(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RateLimitPerMinute, time.Minute)
		log.Info("rate limiter", zap.String("backend", "redis"), zap.Int("per_minute", cfg.RateLimitPerMinute))
		return r, func() {
			if err := r.Close(); err != nil {
				log.Warn("close redis", zap.Error(err))
			}
		}
	}
	m := ratelimit.NewMemory(cfg.RateLimitPerMinute, time.Minute, 5*time.Minute)
	log.Info("rate limiter", zap.String("backend", "memory"), zap.Int("per_minute", cfg.RateLimitPerMinute))
	return m, m.Close
}
