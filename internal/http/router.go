// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, caller identity, logging/redaction, panic
// recovery, compression, metrics, CORS, security headers, idempotency, and
// rate limiting.
package httpapi

import (
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

	_ "github.com/tbourn/go-mindcare-backend/docs"
	"github.com/tbourn/go-mindcare-backend/internal/config"
	"github.com/tbourn/go-mindcare-backend/internal/history"
	"github.com/tbourn/go-mindcare-backend/internal/http/handlers"
	"github.com/tbourn/go-mindcare-backend/internal/http/middleware"
	"github.com/tbourn/go-mindcare-backend/internal/llm"
	"github.com/tbourn/go-mindcare-backend/internal/screen"
	"github.com/tbourn/go-mindcare-backend/internal/services"
)

// Deps are the long-lived resources the API is built from. main owns their
// lifecycle.
type Deps struct {
	DB       *gorm.DB
	Provider llm.Provider
	History  history.Store
}

// BuildServices constructs the application services from deps and cfg.
func BuildServices(deps Deps, cfg config.Config) handlers.Services {
	params := llm.ParamsFrom(cfg.LLM)

	conv := services.NewConversationService(deps.DB, deps.Provider, params, cfg.LLM.Timeout)
	quota := services.NewQuotaService(deps.DB, cfg.Quota.BaseDailyLimit)
	chat := &services.ChatService{
		Screen: screen.New(
			screen.WithInappropriate(cfg.Screen.ExtraInappropriate...),
			screen.WithCrisis(cfg.Screen.ExtraCrisis...),
		),
		Quota:           quota,
		Guests:          services.NewGuestAllowance(cfg.Quota.GuestDailyLimit),
		History:         deps.History,
		Conversations:   conv,
		Provider:        deps.Provider,
		Params:          params,
		Timeout:         cfg.LLM.Timeout,
		MaxMessageRunes: cfg.MaxPromptRunes,
	}

	return handlers.Services{
		Chat:          chat,
		Conversations: conv,
		Quota:         quota,
		Activity:      services.NewActivityService(deps.DB),
		Idempotency:   services.NewIdempotencyService(deps.DB, cfg.IdempotencyTTL),
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve user or guest before anything logs or counts
//  4. Logger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per caller, bypass on replay)
//  10. Compression, CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	svcs := BuildServices(deps, cfg)
	h := handlers.New(svcs)

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", middleware.HeaderSessionID},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var lookup middleware.IdempotencyLookup
	if idem, ok := svcs.Idempotency.(*services.IdempotencyService); ok {
		lookup = idem.Exists
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByCaller())
	r.Use(rl.Handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderUserID, middleware.HeaderSessionID, middleware.HeaderIdempotencyKey, "If-None-Match",
	}
	exposeHeaders := []string{
		"X-Request-ID", middleware.HeaderSessionID, middleware.HeaderIdempotencyReplayed, "ETag", "Retry-After", "Content-Length",
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					hdr := c.Writer.Header()
					hdr.Set("Access-Control-Allow-Origin", origin)
					hdr.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Transcripts are sensitive: never cache.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Session chat
		api.POST("/chat/messages", h.SendMessage)
		api.POST("/chat/check", h.CheckInappropriate)
		api.GET("/chat/quota", h.Quota)
		api.DELETE("/chat/session", h.ResetSession)

		// Conversations
		api.POST("/conversations", h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.DELETE("/conversations/:id", h.DeleteConversation)
		api.POST("/conversations/:id/messages", h.PostConversationMessage)

		// Activity
		api.GET("/activity", h.RecentActivity)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Oversized bodies fail at bind time.
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
