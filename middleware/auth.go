package middleware

import (
	"errors"
	"net/http"

	"logportal/config"
	"logportal/metrics"

	"github.com/gin-gonic/gin"
)

// ReloadTokenHeader carries the token for the reload endpoint.
const ReloadTokenHeader = "X-Reload-Token"

// TokenAuthorizer validates a presented reload token.
type TokenAuthorizer interface {
	Authorize(token string) error
}

// ReloadTokenRequired rejects requests whose reload token is missing or wrong.
// The token is read from the X-Reload-Token header, then the token query
// parameter.
func ReloadTokenRequired(auth TokenAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(ReloadTokenHeader)
		if token == "" {
			token = c.Query("token")
		}

		if err := auth.Authorize(token); err != nil {
			metrics.ReloadsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			c.JSON(http.StatusForbidden, gin.H{"error": tokenErrorMessage(err)})
			c.Abort()
			return
		}

		// Store token in context for the reload handler
		c.Set("reload_token", token)

		c.Next()
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, config.ErrReloadNotConfigured):
		return "Reload token not configured on server"
	case errors.Is(err, config.ErrInvalidToken):
		return "Invalid reload token"
	default:
		return "Forbidden"
	}
}
