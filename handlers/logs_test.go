package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"logportal/database"
	"logportal/export"
	"logportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptestGet("/health"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestQuery_Success(t *testing.T) {
	env := newTestEnv(t)
	env.querier.rs = sampleResultSet()

	form := validForm()
	form.Set("jsession_id", "  abc ")
	form.Set("channel", "web")
	w := env.do(postForm("/query", form))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "2 rows for <strong>Magento Logs</strong>")
	assert.Contains(t, body, "from 2024-11-22 09:00 to 2024-11-22 10:00 UTC")
	assert.Contains(t, body, "<th>jsession_id</th>")
	assert.Contains(t, body, "Order &lt;failed&gt;")
	assert.Equal(t, 2, strings.Count(body, `class="row-select"`))

	require.Equal(t, 1, env.querier.calls)
	got := env.querier.got
	assert.Equal(t, "Magento Logs", got.Application)
	assert.Equal(t, "abc", got.Filters.SessionID)
	assert.Equal(t, "web", got.Filters.Channel)
	assert.Equal(t, fixedNow, got.End)
	assert.Equal(t, fixedNow.Add(-time.Hour), got.Start)
	assert.Equal(t, 60, got.TimeSpan)
	assert.Equal(t, database.DefaultLimit, got.Limit)

	assert.Contains(t, w.Header().Get("Set-Cookie"), "app_name=Magento+Logs")
}

func TestQuery_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		message string
	}{
		{name: "non-integer limit", mutate: func(v url.Values) { v.Set("limit", "abc") }, message: "Invalid limit"},
		{name: "zero limit", mutate: func(v url.Values) { v.Set("limit", "0") }, message: "Invalid limit"},
		{name: "negative limit", mutate: func(v url.Values) { v.Set("limit", "-5") }, message: "Invalid limit"},
		{name: "missing time span", mutate: func(v url.Values) { v.Del("time_span") }, message: "Invalid time span selection."},
		{name: "time span outside the allowed set", mutate: func(v url.Values) { v.Set("time_span", "7") }, message: "Invalid time span selection."},
		{name: "unknown application", mutate: func(v url.Values) { v.Set("application", "Nope") }, message: "Please select a valid application."},
		{name: "missing application", mutate: func(v url.Values) { v.Del("application") }, message: "Please select a valid application."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			form := validForm()
			tt.mutate(form)

			w := env.do(postForm("/query", form))

			assert.Equal(t, http.StatusOK, w.Code, "validation errors render the page normally")
			assert.Contains(t, w.Body.String(), `<div class="error" role="alert">`+tt.message+`</div>`)
			assert.Zero(t, env.querier.calls, "validation happens before any I/O")
			assert.Empty(t, w.Header().Get("Set-Cookie"))
		})
	}
}

func TestQuery_LimitPassedThrough(t *testing.T) {
	env := newTestEnv(t)
	env.querier.rs = sampleResultSet()

	form := validForm()
	form.Set("limit", "50000")
	form.Set("time_span", "10080")
	env.do(postForm("/query", form))

	assert.Equal(t, 50000, env.querier.got.Limit, "clamping is the executor's job")
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), env.querier.got.Start)
}

func TestQuery_NoData(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(postForm("/query", validForm()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No data found.")
	assert.NotContains(t, w.Body.String(), `class="results"`)
}

func TestQuery_DataAccessErrorIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.querier.err = &database.DataAccessError{
		App: "magento",
		Op:  "ping",
		Err: errors.New("dial postgres://admin:hunter2@db:5432/magento: connection refused"),
	}

	w := env.do(postForm("/query", validForm()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Unable to reach the log database")
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.NotContains(t, w.Body.String(), "postgres://")
}

func TestQuery_QueryError(t *testing.T) {
	env := newTestEnv(t)
	env.querier.err = &database.QueryError{App: "magento", Err: errors.New("no such table: logs")}

	w := env.do(postForm("/query", validForm()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "could not be run")
	assert.NotContains(t, w.Body.String(), "no such table")
}

func TestExport_Success(t *testing.T) {
	env := newTestEnv(t)
	env.querier.rs = sampleResultSet()

	w := env.do(postForm("/export", validForm()))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="error_logs.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"event_time", "jsession_id", "message"}, rows[0])
	assert.Equal(t, "Order <failed>", rows[1][2])
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(url.Values)
		rs         *models.ResultSet
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "bad limit", mutate: func(v url.Values) { v.Set("limit", "ten") }, wantStatus: http.StatusBadRequest, wantBody: "Invalid limit"},
		{name: "bad time span", mutate: func(v url.Values) { v.Set("time_span", "abc") }, wantStatus: http.StatusBadRequest, wantBody: "Invalid time span"},
		{name: "unknown application", mutate: func(v url.Values) { v.Set("application", "Nope") }, wantStatus: http.StatusBadRequest, wantBody: "Invalid application"},
		{name: "no rows", wantStatus: http.StatusNotFound, wantBody: "No data to export"},
		{
			name:       "data access failure",
			err:        &database.DataAccessError{App: "magento", Op: "query", Err: errors.New("timeout")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Unable to reach the log database for this application. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.querier.rs = tt.rs
			env.querier.err = tt.err

			form := validForm()
			if tt.mutate != nil {
				tt.mutate(form)
			}
			w := env.do(postForm("/export", form))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestParseQueryForm(t *testing.T) {
	apps := fakeCatalog{"Frontend"}

	req, ferr := parseQueryForm(models.QueryForm{
		Application:     "Frontend",
		TimeSpan:        "1440",
		Limit:           " 25 ",
		TransactionID:   " tx1 ",
		SCTransactionID: "sc1",
		BackendSystem:   "bss",
	}, apps, fixedNow.In(time.FixedZone("GST", 4*3600)))
	require.Nil(t, ferr)

	assert.Equal(t, 25, req.Limit)
	assert.Equal(t, time.UTC, req.End.Location())
	assert.Equal(t, fixedNow.Add(-24*time.Hour), req.Start)
	assert.Equal(t, models.Filters{TransactionID: "tx1", SCTransactionID: "sc1", BackendSystem: "bss"}, req.Filters)

	for _, span := range TimeSpans {
		_, ferr := parseQueryForm(models.QueryForm{Application: "Frontend", TimeSpan: span.Value()}, apps, fixedNow)
		assert.Nil(t, ferr, span.Label)
	}
}
