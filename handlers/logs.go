package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"logportal/database"
	"logportal/export"
	"logportal/metrics"
	"logportal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogQuerier runs a validated log search.
type LogQuerier interface {
	QueryLogs(ctx context.Context, req models.QueryRequest) (*models.ResultSet, error)
}

// Catalog lists the selectable applications.
type Catalog interface {
	DisplayNames() []string
	Has(displayName string) bool
}

const appCookie = "app_name"

// HealthCheck reports that the process is serving.
func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "ok",
	})
}

// Query runs a search and renders the index page with results or an inline error.
func Query(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := d.newPage()

		var form models.QueryForm
		if err := c.ShouldBind(&form); err != nil {
			page.Error = "Invalid request."
			c.HTML(http.StatusBadRequest, indexTemplate, page)
			return
		}
		page.Form = form
		page.Selected = form.Application

		req, ferr := parseQueryForm(form, d.Apps, d.Now())
		if ferr != nil {
			metrics.QueriesTotal.WithLabelValues("", metrics.OutcomeRejected).Inc()
			page.Error = ferr.queryMessage()
			c.HTML(http.StatusOK, indexTemplate, page)
			return
		}

		c.SetCookie(appCookie, req.Application, 0, "/", "", false, true)

		d.Logger.Info("API Request",
			zap.String("application", req.Application),
			zap.String("jsession_id", req.Filters.SessionID),
			zap.Int("time_span", req.TimeSpan),
			zap.Int("limit", req.Limit))

		rs, err := d.Logs.QueryLogs(c.Request.Context(), req)
		if err != nil {
			d.Logger.Error("Log query failed", zap.String("application", req.Application), zap.Error(err))
			page.Error = dataErrorMessage(err)
			c.HTML(http.StatusInternalServerError, indexTemplate, page)
			return
		}

		if rs.Empty() {
			page.Error = "No data found."
			c.HTML(http.StatusOK, indexTemplate, page)
			return
		}

		page.Results = &models.QueryResults{
			Columns:    rs.Columns,
			Rows:       rs.Rows,
			Count:      len(rs.Rows),
			AppName:    req.Application,
			JSessionID: req.Filters.SessionID,
			StartTime:  req.Start.Format(resultTimeLayout),
			EndTime:    req.End.Format(resultTimeLayout),
			TimeSpan:   req.TimeSpan,
		}

		d.Logger.Info("API Response",
			zap.Int("rows", page.Results.Count),
			zap.String("start_time", page.Results.StartTime),
			zap.String("end_time", page.Results.EndTime))

		c.HTML(http.StatusOK, indexTemplate, page)
	}
}

// Export runs a search and returns the rows as an xlsx attachment.
func Export(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.QueryForm
		if err := c.ShouldBind(&form); err != nil {
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}

		req, ferr := parseQueryForm(form, d.Apps, d.Now())
		if ferr != nil {
			metrics.ExportsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			c.String(http.StatusBadRequest, ferr.exportMessage())
			return
		}

		rs, err := d.Logs.QueryLogs(c.Request.Context(), req)
		if err != nil {
			metrics.ExportsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			d.Logger.Error("Export query failed", zap.String("application", req.Application), zap.Error(err))
			c.String(http.StatusInternalServerError, dataErrorMessage(err))
			return
		}

		if rs.Empty() {
			metrics.ExportsTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
			c.String(http.StatusNotFound, "No data to export")
			return
		}

		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, rs); err != nil {
			metrics.ExportsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			d.Logger.Error("Failed to build spreadsheet", zap.Error(err))
			c.String(http.StatusInternalServerError, genericErrorMessage)
			return
		}

		metrics.ExportsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
		c.Data(http.StatusOK, export.ContentType, buf.Bytes())
	}
}

// Helper functions

const resultTimeLayout = "2006-01-02 15:04"

type formField int

const (
	fieldLimit formField = iota
	fieldTimeSpan
	fieldApplication
)

type formError struct {
	field formField
}

func (e *formError) queryMessage() string {
	switch e.field {
	case fieldLimit:
		return "Invalid limit"
	case fieldTimeSpan:
		return "Invalid time span selection."
	default:
		return "Please select a valid application."
	}
}

func (e *formError) exportMessage() string {
	switch e.field {
	case fieldLimit:
		return "Invalid limit"
	case fieldTimeSpan:
		return "Invalid time span"
	default:
		return "Invalid application"
	}
}

// parseQueryForm validates the form before any I/O. The window ends at now
// (UTC) and starts time_span minutes earlier.
func parseQueryForm(form models.QueryForm, apps Catalog, now time.Time) (models.QueryRequest, *formError) {
	limit := database.DefaultLimit
	if s := strings.TrimSpace(form.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return models.QueryRequest{}, &formError{field: fieldLimit}
		}
		limit = n
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(form.TimeSpan))
	if err != nil || !validTimeSpan(minutes) {
		return models.QueryRequest{}, &formError{field: fieldTimeSpan}
	}

	if form.Application == "" || !apps.Has(form.Application) {
		return models.QueryRequest{}, &formError{field: fieldApplication}
	}

	end := now.UTC()
	return models.QueryRequest{
		Application: form.Application,
		Filters: models.Filters{
			SessionID:       strings.TrimSpace(form.JSessionID),
			BackendSystem:   strings.TrimSpace(form.BackendSystem),
			Channel:         strings.TrimSpace(form.Channel),
			SCTransactionID: strings.TrimSpace(form.SCTransactionID),
			TransactionID:   strings.TrimSpace(form.TransactionID),
		},
		Start:    end.Add(-time.Duration(minutes) * time.Minute),
		End:      end,
		TimeSpan: minutes,
		Limit:    limit,
	}, nil
}

func dataErrorMessage(err error) string {
	var dae *database.DataAccessError
	var qe *database.QueryError
	switch {
	case errors.As(err, &dae):
		return "Unable to reach the log database for this application. Please try again later."
	case errors.As(err, &qe):
		return "The log query could not be run for this application. Please contact support."
	default:
		return genericErrorMessage
	}
}
