// Package httpapi assembles the Gin engine: middleware, the contacts API
// under cfg.APIBasePath, the HTML page at "/", health, metrics and docs.
package httpapi

import (
	"context"
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

	"github.com/tbourn/go-contacts-backend/docs"
	"github.com/tbourn/go-contacts-backend/internal/config"
	"github.com/tbourn/go-contacts-backend/internal/domain"
	"github.com/tbourn/go-contacts-backend/internal/http/handlers"
	"github.com/tbourn/go-contacts-backend/internal/http/middleware"
	"github.com/tbourn/go-contacts-backend/internal/repo"
	"github.com/tbourn/go-contacts-backend/internal/services"
)

// contactRepoShim adapts the repo free functions to services.ContactRepo.
type contactRepoShim struct{}

func (contactRepoShim) ListContacts(ctx context.Context, db *gorm.DB) ([]domain.Contact, error) {
	return repo.ListContacts(ctx, db)
}

func (contactRepoShim) GetContact(ctx context.Context, db *gorm.DB, id int64) (*domain.Contact, error) {
	return repo.GetContact(ctx, db, id)
}

func (contactRepoShim) GetContactByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Contact, error) {
	return repo.GetContactByEmail(ctx, db, email)
}

func (contactRepoShim) CreateContact(ctx context.Context, db *gorm.DB, name, email string, phone *string) (*domain.Contact, error) {
	return repo.CreateContact(ctx, db, name, email, phone)
}

func (contactRepoShim) UpdateContact(ctx context.Context, db *gorm.DB, id int64, patch domain.ContactPatch) (*domain.Contact, error) {
	return repo.UpdateContact(ctx, db, id, patch)
}

func (contactRepoShim) DeleteContact(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return repo.DeleteContact(ctx, db, id)
}

func (contactRepoShim) ContactsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.ContactsStats(ctx, db)
}

var corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

// RegisterRoutes installs middleware and routes on r.
//
// Middleware order:
//  1. otelgin tracing
//  2. RequestID
//  3. RedactingLogger (also attaches the request-scoped logger)
//  4. Recovery
//  5. body size cap and gzip
//  6. Prometheus metrics
//  7. per-IP rate limiter
//  8. CORS and security headers
//
// With UIEnabled the HTML page is served at "/", its form posts back to "/"
// and its delete confirmation posts to "/delete/:id".
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).Handler())

	corsCfg := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
		ExposeHeaders: []string{"X-Request-ID", "ETag", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, handlers.MsgRouteNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, handlers.MsgMethodNotAllowed)
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(services.NewContactService(db, contactRepoShim{}))

	if cfg.UIEnabled {
		r.GET("/", h.ContactsPage)
		r.POST("/", h.SubmitContactForm)
		r.POST("/delete/:id", h.DeleteContactForm)
	}

	// the collection answers with and without a trailing slash
	api := r.Group(cfg.APIBasePath)
	{
		api.GET("", h.ListContacts)
		api.GET("/", h.ListContacts)
		api.POST("", h.CreateContact)
		api.POST("/", h.CreateContact)
		api.GET("/:id", h.GetContact)
		api.PUT("/:id", h.UpdateContact)
		api.DELETE("/:id", h.DeleteContact)
	}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail with
// *http.MaxBytesError.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
