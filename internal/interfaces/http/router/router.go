// Package router assembles the gin engine: middleware chain and route table.
package router

import (
	"net/http"

	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/infrastructure/config"
	"github.com/estatecrm/backend/internal/infrastructure/logger"
	"github.com/estatecrm/backend/internal/interfaces/http/dto"
	"github.com/estatecrm/backend/internal/interfaces/http/handler"
	"github.com/estatecrm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Dependencies collects everything the router wires together.
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	Registry      *registry.Registry
	Validator     middleware.Validator
	Auth          *handler.AuthHandler
	Crud          *handler.CrudHandler
	Command       *handler.CommandHandler
	Notifications *handler.NotificationHandler
	System        *handler.SystemHandler
}

// New builds the gin engine with the full middleware chain and route table.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = r.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(logger.Recovery(deps.Logger))
	r.Use(middleware.CORS(cfg.HTTP))
	r.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.App.Name))
	}
	if cfg.HTTP.RateLimitEnabled {
		r.Use(middleware.RateLimit(
			middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}

	guard := middleware.SessionGuard(deps.Validator, middleware.SessionGuardConfig{
		InsecureLocal: cfg.Auth.InsecureLocal,
		Registry:      deps.Registry,
	})

	r.GET("/health", deps.System.Health)

	api := r.Group("/api")
	api.Use(guard)

	auth := api.Group("/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		auth.Use(middleware.RateLimit(
			middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)))
	}
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/register", deps.Auth.Register)
	auth.POST("/logout", deps.Auth.Logout)
	auth.GET("/validate", deps.Auth.Validate)

	api.POST("/command", deps.Command.Execute)

	notifications := api.Group("/notification")
	notifications.GET("/list", deps.Notifications.List)
	notifications.GET("/unread", deps.Notifications.UnreadCount)
	notifications.PATCH("/read/:id", deps.Notifications.MarkRead)
	notifications.PATCH("/readAll", deps.Notifications.MarkAllRead)

	entity := api.Group("/:entity")
	entity.GET("/list", deps.Crud.List)
	entity.GET("/listAll", deps.Crud.ListAll)
	entity.GET("/search", deps.Crud.Search)
	entity.GET("/filter", deps.Crud.Filter)
	entity.GET("/summary", deps.Crud.Summary)
	entity.GET("/read/:id", deps.Crud.Read)
	entity.POST("/create", deps.Crud.Create)
	entity.PATCH("/update/:id", deps.Crud.Update)
	entity.DELETE("/delete/:id", deps.Crud.Delete)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("Route not found"))
	})

	return r
}
