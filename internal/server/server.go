package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/paybridge/internal/config"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
	"github.com/smallbiznis/paybridge/internal/observability"
	obsmiddleware "github.com/smallbiznis/paybridge/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	obstracing "github.com/smallbiznis/paybridge/internal/observability/tracing"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	webhookdomain "github.com/smallbiznis/paybridge/internal/platform/webhook/domain"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// integrationSyncer is the slice of the sync service the handlers drive.
type integrationSyncer interface {
	Sync(ctx context.Context, userID, platformID string) (*syncer.Result, error)
	RegisterWebhook(ctx context.Context, userID, platformID, target string) (string, error)
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	configs      integrationdomain.Service
	transactions txdomain.Service
	syncer       integrationSyncer
	webhooks     webhookdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Configs      integrationdomain.Service
	Transactions txdomain.Service
	Syncer       *syncer.Service
	Webhooks     webhookdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http"),
		configs:      p.Configs,
		transactions: p.Transactions,
		syncer:       p.Syncer,
		webhooks:     p.Webhooks,
	}

	svc.RegisterRoutes()
	return svc
}

func (s *Server) RegisterRoutes() {
	s.engine.POST("/webhooks/:platform/:user_id", s.HandlePlatformWebhook)

	api := s.engine.Group("/api")
	api.GET("/platforms", s.ListPlatforms)

	user := api.Group("", UserRequired())

	integrations := user.Group("/integrations")
	integrations.GET("", s.ListIntegrations)
	integrations.GET("/:platform", s.GetIntegration)
	integrations.PUT("/:platform", s.SaveIntegration)
	integrations.PATCH("/:platform", s.UpdateIntegration)
	integrations.POST("/:platform/sync", s.SyncIntegration)
	integrations.POST("/:platform/webhook", s.RegisterIntegrationWebhook)

	transactions := user.Group("/transactions")
	transactions.GET("", s.ListTransactions)
	transactions.GET("/summary", s.SummarizeTransactions)
	transactions.GET("/:platform/:id", s.GetTransaction)
	transactions.PATCH("/:platform/:id", s.UpdateTransaction)
	transactions.DELETE("/:platform/:id", s.DeleteTransaction)
	transactions.PATCH("/:platform/:id/status", s.UpdateTransactionStatus)
}
