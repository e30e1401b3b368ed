package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/supportdesk/internal/auth"
	"github.com/geocoder89/supportdesk/internal/config"
	"github.com/geocoder89/supportdesk/internal/http/handlers"
	"github.com/geocoder89/supportdesk/internal/http/middlewares"
	"github.com/geocoder89/supportdesk/internal/observability"
	"github.com/geocoder89/supportdesk/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB request bodies are plenty for tickets

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("supportdesk"))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)
	r.Use(prom.GinHandleMiddleware())

	// health + metrics

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	casesRepo := postgres.NewCasesRepo(pool, prom)
	commentsRepo := postgres.NewCommentsRepo(pool, prom)

	// token service: one process-wide signing key
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	authMW := middlewares.NewAuthMiddleware(jwtManager, log)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, prom)
	casesHandler := handlers.NewCasesHandler(casesRepo, commentsRepo)
	commentsHandler := handlers.NewCommentsHandler(commentsRepo, casesRepo, usersRepo)

	// credential endpoints get a per-IP limiter to blunt brute force
	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, time.Duration(cfg.AuthRateWindowSecs)*time.Second)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
		authGroup.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

		userGroup := authGroup.Group("/user", authMW.RequireAuth())
		{
			userGroup.GET("", authHandler.GetProfile)
			userGroup.PUT("", authHandler.UpdateProfile)
			userGroup.DELETE("", authHandler.DeleteAccount)
		}
	}

	casesGroup := r.Group("/cases", authMW.RequireAuth())
	{
		casesGroup.GET("", casesHandler.ListCases)
		casesGroup.POST("", casesHandler.CreateCase)
		casesGroup.GET("/:id", casesHandler.GetCase)
		casesGroup.PUT("/:id", casesHandler.UpdateCase)
		casesGroup.DELETE("/:id", casesHandler.DeleteCase)
	}

	commentsGroup := r.Group("/comments", authMW.RequireAuth())
	{
		commentsGroup.POST("", commentsHandler.CreateComment)
		commentsGroup.GET("/:caseId", commentsHandler.ListComments)
	}

	return r
}
