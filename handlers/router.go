package handlers

import (
	"net/http"
	"time"

	"logportal/middleware"
	"logportal/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Apps    Catalog
	Logs    LogQuerier
	Mailer  Mailer
	Runtime RuntimeConfig
	Logger  *zap.Logger

	// Pools is optional; when set, stale pools are released after a reload.
	Pools PoolPruner

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter wires every route of the portal.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.Use(middleware.RequestLogger(d.Logger), middleware.Recovery(d.Logger, InternalError(d)))

	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/", Index(d))
	r.POST("/query", Query(d))
	r.POST("/export", Export(d))
	r.POST("/send_selected_logs", SendSelectedLogs(d))
	r.POST("/__reload_config", middleware.ReloadTokenRequired(d.Runtime), ReloadConfig(d))

	r.GET("/health", HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(NotFound(d))

	return r
}
