package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"logportal/config"
	"logportal/models"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

type fakeCatalog []string

func (f fakeCatalog) DisplayNames() []string { return f }

func (f fakeCatalog) Has(name string) bool { return slices.Contains(f, name) }

type fakeQuerier struct {
	rs    *models.ResultSet
	err   error
	calls int
	got   models.QueryRequest
}

func (f *fakeQuerier) QueryLogs(_ context.Context, req models.QueryRequest) (*models.ResultSet, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	if f.rs == nil {
		return &models.ResultSet{Columns: []string{}, Rows: []models.Row{}}, nil
	}
	return f.rs, nil
}

type fakeMailer struct {
	err       error
	panicWith any
	calls     int
	recipient string
	rows      []models.Row
	label     string
}

func (f *fakeMailer) Send(_ context.Context, recipient string, rows []models.Row, label string) error {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	f.calls++
	f.recipient, f.rows, f.label = recipient, rows, label
	return f.err
}

func sampleResultSet() *models.ResultSet {
	return &models.ResultSet{
		Columns: []string{"event_time", "jsession_id", "message"},
		Rows: []models.Row{
			{{Name: "event_time", Value: "2024-11-22 09:59:00"}, {Name: "jsession_id", Value: "abc"}, {Name: "message", Value: "Order <failed>"}},
			{{Name: "event_time", Value: "2024-11-22 09:58:00"}, {Name: "jsession_id", Value: "abc"}, {Name: "message", Value: "Payment processed"}},
		},
	}
}

type testEnv struct {
	querier *fakeQuerier
	mailer  *fakeMailer
	store   *config.Store
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		querier: &fakeQuerier{},
		mailer:  &fakeMailer{},
		store: config.NewStore(config.Runtime{
			Site: config.Site{Title: "Application Logs Portal", LogoAlt: "Logo"},
		}, "", "", nil),
	}
	env.router = NewRouter(Deps{
		Apps:    fakeCatalog{"Magento Logs", "Frontend"},
		Logs:    env.querier,
		Mailer:  env.mailer,
		Runtime: env.store,
		Now:     func() time.Time { return fixedNow },
	})
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func validForm() url.Values {
	return url.Values{
		"application": {"Magento Logs"},
		"time_span":   {"60"},
	}
}
