package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"logportal/config"
	"logportal/database"
	"logportal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	indexTemplate       = "index.html"
	genericErrorMessage = "An internal error occurred. Please try again later or contact support."
)

// TimeSpan is one selectable search window.
type TimeSpan struct {
	Minutes int
	Label   string
}

// Value is the form value of the option.
func (t TimeSpan) Value() string {
	return strconv.Itoa(t.Minutes)
}

// TimeSpans are the only windows a search may use.
var TimeSpans = []TimeSpan{
	{5, "Last 5 minutes"},
	{15, "Last 15 minutes"},
	{30, "Last 30 minutes"},
	{60, "Last 1 hour"},
	{180, "Last 3 hours"},
	{360, "Last 6 hours"},
	{720, "Last 12 hours"},
	{1440, "Last 24 hours"},
	{4320, "Last 3 days"},
	{10080, "Last 7 days"},
}

const defaultTimeSpan = "60"

func validTimeSpan(minutes int) bool {
	for _, ts := range TimeSpans {
		if ts.Minutes == minutes {
			return true
		}
	}
	return false
}

// Page is the view model of the index template.
type Page struct {
	Site         config.Site
	Applications []string
	TimeSpans    []TimeSpan
	Selected     string
	Form         models.QueryForm
	Error        string
	Results      *models.QueryResults
}

func (d Deps) newPage() Page {
	return Page{
		Site:         d.Runtime.Site(),
		Applications: d.Apps.DisplayNames(),
		TimeSpans:    TimeSpans,
		Form: models.QueryForm{
			TimeSpan: defaultTimeSpan,
			Limit:    strconv.Itoa(database.DefaultLimit),
		},
	}
}

// Index renders the empty search page.
func Index(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, indexTemplate, d.newPage())
	}
}

// NotFound answers unknown routes with a light warning log.
func NotFound(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		d.Logger.Warn("HTTP exception during request",
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", http.StatusNotFound))

		if strings.HasPrefix(c.Request.URL.Path, "/static/") {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}
		d.renderError(c, http.StatusNotFound, "Not Found")
	}
}

// InternalError writes the friendly 500 response after a recovered panic.
func InternalError(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		d.renderError(c, http.StatusInternalServerError, genericErrorMessage)
	}
}

// renderError answers JSON callers with {"error": message} and everyone
// else with the index page carrying the message.
func (d Deps) renderError(c *gin.Context, status int, message string) {
	if wantsJSON(c) {
		c.JSON(status, gin.H{"error": message})
		return
	}
	page := d.newPage()
	page.Error = message
	c.HTML(status, indexTemplate, page)
}

func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON || strings.HasPrefix(c.Request.URL.Path, "/send_selected_logs")
}
