// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/pet-weight-backend/docs"
	"github.com/tbourn/pet-weight-backend/internal/config"
	"github.com/tbourn/pet-weight-backend/internal/domain"
	"github.com/tbourn/pet-weight-backend/internal/http/handlers"
	"github.com/tbourn/pet-weight-backend/internal/http/middleware"
	"github.com/tbourn/pet-weight-backend/internal/repo"
	"github.com/tbourn/pet-weight-backend/internal/services"
)

const defaultMaxBodyBytes = 1 << 20

// recordRepoShim adapts the repository free functions to the
// services.RecordRepo interface expected by the RecordService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type recordRepoShim struct{}

// ListRecords proxies repo.ListRecords.
func (recordRepoShim) ListRecords(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	return repo.ListRecords(ctx, db)
}

// GetRecord proxies repo.GetRecord.
func (recordRepoShim) GetRecord(ctx context.Context, db *gorm.DB, id uint) (*domain.Record, error) {
	return repo.GetRecord(ctx, db, id)
}

// CreateRecord proxies repo.CreateRecord.
func (recordRepoShim) CreateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return repo.CreateRecord(ctx, db, rec)
}

// SaveRecord proxies repo.SaveRecord.
func (recordRepoShim) SaveRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return repo.SaveRecord(ctx, db, rec)
}

// DeleteRecord proxies repo.DeleteRecord.
func (recordRepoShim) DeleteRecord(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteRecord(ctx, db, id)
}

// RecordsStats proxies repo.RecordsStats (ETag support).
func (recordRepoShim) RecordsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, uint, error) {
	return repo.RecordsStats(ctx, db)
}

// GetIdempotency proxies repo.GetIdempotency.
func (recordRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, key, now)
}

// CreateIdempotency proxies repo.CreateIdempotency.
func (recordRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, key string, recordID uint, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, key, recordID, status, now, ttl)
}

// DeleteIdempotency proxies repo.DeleteIdempotency.
func (recordRepoShim) DeleteIdempotency(ctx context.Context, db *gorm.DB, key string) error {
	return repo.DeleteIdempotency(ctx, db, key)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health, metrics and docs endpoints,
// and then mounts the record API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger (redacting unless LOG_REDACT=false)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (skips /metrics, which negotiates its own encoding)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per client IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging, with or without redaction
	if cfg.Log.Redact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{
				"X-API-Key", // project-specific sensitive header example
			},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	r.Use(limitBody(maxBody))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{middleware.HeaderRequestID, "ETag", middleware.HeaderIdempotencyReplayed, "Content-Length"}
	methods := []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	recSvc := services.NewRecordService(db, recordRepoShim{})
	if cfg.IdempotencyTTL > 0 {
		recSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	h := handlers.New(recSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api"
	{
		api.GET("/records", h.ListRecords)
		api.POST("/records", h.CreateRecord)
		api.PUT("/records/:id", h.UpdateRecord)
		api.DELETE("/records/:id", h.DeleteRecord)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
