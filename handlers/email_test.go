package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSelectedLogs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(postJSON("/send_selected_logs",
		`{"rows":[{"z_col":"first","a_col":2},{"z_col":"second","a_col":3}],"email":"ops@example.com","app_name":"Frontend"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	require.Equal(t, 1, env.mailer.calls)
	assert.Equal(t, "ops@example.com", env.mailer.recipient)
	assert.Equal(t, "Frontend", env.mailer.label)
	require.Len(t, env.mailer.rows, 2)
	assert.Equal(t, []string{"z_col", "a_col"}, env.mailer.rows[0].Names(), "column order survives the round trip")
}

func TestSendSelectedLogs_LabelFromCookie(t *testing.T) {
	env := newTestEnv(t)

	req := postJSON("/send_selected_logs", `{"rows":[{"a":1}],"email":"ops@example.com"}`)
	req.AddCookie(&http.Cookie{Name: "app_name", Value: "Magento+Logs"})
	w := env.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Magento Logs", env.mailer.label)
}

func TestSendSelectedLogs_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no rows", body: `{"rows":[],"email":"ops@example.com"}`, want: `{"error":"Missing rows or email"}`},
		{name: "no email", body: `{"rows":[{"a":1}]}`, want: `{"error":"Missing rows or email"}`},
		{name: "blank email", body: `{"rows":[{"a":1}],"email":"   "}`, want: `{"error":"Missing rows or email"}`},
		{name: "malformed json", body: `{"rows":`, want: `{"error":"Invalid JSON body"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(postJSON("/send_selected_logs", tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
			assert.Zero(t, env.mailer.calls)
		})
	}
}

func TestSendSelectedLogs_SendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("SMTP host and port must be configured")

	w := env.do(postJSON("/send_selected_logs", `{"rows":[{"a":1}],"email":"ops@example.com"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"SMTP host and port must be configured"}`, w.Body.String())
}
