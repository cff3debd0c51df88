package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func httptestGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptestGet("/"))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Application Logs Portal</title>")
	assert.Contains(t, body, `<option value="Magento Logs">Magento Logs</option>`)
	assert.Contains(t, body, `<option value="Frontend">Frontend</option>`)
	assert.Contains(t, body, `<option value="60" selected>Last 1 hour</option>`)
	assert.Contains(t, body, `name="limit" min="1" value="500"`)
	assert.NotContains(t, body, `class="error"`)
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		req      *http.Request
		wantJSON bool
	}{
		{name: "page route", req: httptestGet("/nope")},
		{name: "json request", req: postJSON("/api/nope", `{}`), wantJSON: true},
		{name: "email path", req: httptestGet("/send_selected_logs/extra"), wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.req)

			assert.Equal(t, http.StatusNotFound, w.Code)
			if tt.wantJSON {
				assert.JSONEq(t, `{"error":"Not Found"}`, w.Body.String())
				return
			}
			assert.Contains(t, w.Body.String(), `<div class="error" role="alert">Not Found</div>`)
		})
	}
}

func TestStatic(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptestGet("/static/style.css"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "table.results")

	w = env.do(httptestGet("/static/missing.png"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "<html")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptestGet("/metrics"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestPanicRendersFriendlyError(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.panicWith = "smtp exploded"

	w := env.do(postJSON("/send_selected_logs", `{"rows":[{"a":1}],"email":"ops@example.com"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"An internal error occurred. Please try again later or contact support."}`, w.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptestGet("/health"))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
