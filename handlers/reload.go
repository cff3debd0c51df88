package handlers

import (
	"errors"
	"net/http"

	"logportal/config"
	"logportal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RuntimeConfig is the live, reloadable configuration.
type RuntimeConfig interface {
	Site() config.Site
	Authorize(token string) error
	Reload(token string) (config.ReloadSummary, error)
}

// PoolPruner releases connection pools that no application uses after a reload.
type PoolPruner interface {
	PrunePools() int
}

// ReloadConfig re-reads the deploy override file. It runs behind
// middleware.ReloadTokenRequired, which stores the accepted token.
func ReloadConfig(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := d.Runtime.Reload(c.GetString("reload_token"))
		if err != nil {
			switch {
			case errors.Is(err, config.ErrReloadNotConfigured):
				metrics.ReloadsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
				c.JSON(http.StatusForbidden, gin.H{"error": "Reload token not configured on server"})
				return
			case errors.Is(err, config.ErrInvalidToken):
				metrics.ReloadsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
				c.JSON(http.StatusForbidden, gin.H{"error": "Invalid reload token"})
				return
			}
			metrics.ReloadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			d.Logger.Error("Failed to reload deploy config", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload deploy config"})
			return
		}

		metrics.ReloadsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		if d.Pools != nil {
			if n := d.Pools.PrunePools(); n > 0 {
				d.Logger.Info("Released stale database pools", zap.Int("count", n))
			}
		}
		d.Logger.Info("Runtime configuration reloaded",
			zap.Int("db_overrides", len(summary.DBOverrides)),
			zap.String("smtp_host", summary.SMTP.Host),
			zap.String("site_title", summary.Site.Title))
		c.JSON(http.StatusOK, summary)
	}
}
