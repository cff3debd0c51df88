package database

import (
	"fmt"
	"maps"
	"time"

	"logportal/models"

	"github.com/jmoiron/sqlx"
)

// Named parameters every application template may reference.
const (
	paramAppName         = "app_name"
	paramStartTime       = "start_time"
	paramEndTime         = "end_time"
	paramSessionID       = "jsid"
	paramLimit           = "limit"
	paramBackendSystem   = "backend_system"
	paramChannel         = "channel"
	paramSCTransactionID = "sc_transaction_id"
	paramTransactionID   = "transaction_id"
)

const timestampLayout = "2006-01-02 15:04:05"

// QueryBuilder binds the fixed named-parameter set of an application template.
// Templates reference parameters as :name; unreferenced parameters are ignored.
type QueryBuilder struct {
	template string
	mode     models.MatchMode
	params   map[string]any
}

// NewQueryBuilder starts a builder for app with every reserved slot set to NULL.
func NewQueryBuilder(app models.Application) *QueryBuilder {
	return &QueryBuilder{
		template: app.SelectQuery,
		mode:     app.MatchMode,
		params: map[string]any{
			paramAppName:         app.Key,
			paramStartTime:       nil,
			paramEndTime:         nil,
			paramSessionID:       nil,
			paramLimit:           DefaultLimit,
			paramBackendSystem:   nil,
			paramChannel:         nil,
			paramSCTransactionID: nil,
			paramTransactionID:   nil,
		},
	}
}

// SetTimeRange binds start and end as UTC "YYYY-MM-DD HH:MM:SS" strings.
func (qb *QueryBuilder) SetTimeRange(start, end time.Time) {
	qb.params[paramStartTime] = FormatTimestamp(start)
	qb.params[paramEndTime] = FormatTimestamp(end)
}

// SetSessionID binds the session id filter. In pattern mode the value is
// wrapped in % on both sides; an empty id binds NULL.
func (qb *QueryBuilder) SetSessionID(id string) {
	qb.params[paramSessionID] = sessionParam(id, qb.mode)
}

// SetFilters binds all optional filters.
func (qb *QueryBuilder) SetFilters(f models.Filters) {
	qb.SetSessionID(f.SessionID)
	qb.params[paramBackendSystem] = nullable(f.BackendSystem)
	qb.params[paramChannel] = nullable(f.Channel)
	qb.params[paramSCTransactionID] = nullable(f.SCTransactionID)
	qb.params[paramTransactionID] = nullable(f.TransactionID)
}

// SetLimit binds the row cap, defaulted and clamped to MaxLimit.
func (qb *QueryBuilder) SetLimit(limit int) {
	qb.params[paramLimit] = validateLimit(limit, DefaultLimit, MaxLimit)
}

// Params returns a copy of the bound parameters.
func (qb *QueryBuilder) Params() map[string]any {
	return maps.Clone(qb.params)
}

// Build compiles the template to positional form for the given sqlx bind type.
// A template naming a parameter outside the fixed set fails here.
func (qb *QueryBuilder) Build(bindType int) (string, []any, error) {
	query, args, err := sqlx.Named(qb.template, qb.params)
	if err != nil {
		return "", nil, fmt.Errorf("failed to bind template parameters: %w", err)
	}
	return sqlx.Rebind(bindType, query), args, nil
}

// Helper functions

// FormatTimestamp renders t in UTC using the layout the templates compare against.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func sessionParam(id string, mode models.MatchMode) any {
	if id == "" {
		return nil
	}
	if mode == models.MatchPattern {
		return "%" + id + "%"
	}
	return id
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func validateLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
