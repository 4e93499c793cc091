package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tmi/config"
	"tmi/internal/app/adapters/http/handlers"
	"tmi/internal/app/adapters/http/middlewares"
	"tmi/pkg/logger"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, status func() handlers.ConnStatus) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		router:      gin.Default(),
		handlers:    handlers.New(log, manager, status),
		middlewares: middlewares.New(),
		log:         log,
		manager:     manager,
	}
	cfg := manager.Get()

	r.router.GET("/metrics", gin.BasicAuth(gin.Accounts{
		"admin": cfg.HTTP.AuthToken,
	}), gin.WrapH(promhttp.Handler()))

	r.router.GET("/health", r.middlewares.Auth(cfg.HTTP.AuthToken), r.handlers.HealthHandler)

	return r
}

func (r *Router) Run() error {
	return r.router.Run(r.manager.Get().HTTP.Addr)
}
