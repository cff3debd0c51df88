package handlers

import (
	"context"
	"net/http"
	"strings"

	"logportal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Mailer delivers selected rows by email.
type Mailer interface {
	Send(ctx context.Context, recipient string, rows []models.Row, appLabel string) error
}

// SendSelectedLogs emails the rows picked on the results page. The
// application label falls back to the one stored by the last search.
func SendSelectedLogs(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SendLogsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
			return
		}

		email := strings.TrimSpace(req.Email)
		if len(req.Rows) == 0 || email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing rows or email"})
			return
		}

		appName := req.AppName
		if appName == "" {
			appName, _ = c.Cookie(appCookie)
		}

		if err := d.Mailer.Send(c.Request.Context(), email, req.Rows, appName); err != nil {
			d.Logger.Error("Failed to send selected logs",
				zap.String("recipient", email),
				zap.String("application", appName),
				zap.Int("rows", len(req.Rows)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
