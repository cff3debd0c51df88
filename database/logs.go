package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logportal/config"
	"logportal/metrics"
	"logportal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Row caps applied when a request leaves the limit unset or asks for too much.
const (
	DefaultLimit = 500
	MaxLimit     = 10000
)

// AppResolver finds an application and its current connection.
type AppResolver interface {
	Lookup(displayName string) (models.Application, error)
	Resolve(displayName string) (models.ConnectionInfo, error)
	Connections() []models.ConnectionInfo
}

// Executor runs application query templates against their backing stores.
type Executor struct {
	resolver AppResolver
	pools    *Pools
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExecutor creates an Executor. A zero timeout leaves queries unbounded.
func NewExecutor(resolver AppResolver, pools *Pools, timeout time.Duration, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		resolver: resolver,
		pools:    pools,
		timeout:  timeout,
		logger:   logger,
	}
}

// QueryLogs runs the application's template for the request's time window,
// filters and limit. Rows come back in the order the template produces,
// newest first for every shipped template.
//
// An unknown application yields an empty result set, not an error. Zero rows
// is likewise a valid result. Failures are either *DataAccessError (the store
// could not be reached, including timeouts) or *QueryError (the template could
// not be bound or executed).
//
// Every call resolves the connection again and pings the pool before running
// the query, so a dead pooled connection is replaced before use.
func (e *Executor) QueryLogs(ctx context.Context, req models.QueryRequest) (*models.ResultSet, error) {
	start := time.Now()
	outcome := metrics.OutcomeOK
	var rowCount int
	defer func() {
		metrics.QueriesTotal.WithLabelValues(req.Application, outcome).Inc()
		metrics.QueryDuration.WithLabelValues(req.Application).Observe(time.Since(start).Seconds())
		e.logger.Info("QueryLogs",
			zap.String("application", req.Application),
			zap.String("outcome", outcome),
			zap.Int("rows", rowCount),
			zap.Duration("duration", time.Since(start)),
			zap.String("jsession_id", req.Filters.SessionID),
			zap.Int("limit", req.Limit))
	}()

	app, err := e.resolver.Lookup(req.Application)
	if errors.Is(err, config.ErrNotFound) {
		outcome = metrics.OutcomeUnknownApp
		return emptyResultSet(), nil
	}
	if err != nil {
		outcome = metrics.OutcomeError
		return nil, err
	}

	info, err := e.resolver.Resolve(req.Application)
	if err != nil {
		outcome = metrics.OutcomeError
		return nil, err
	}
	if info.Unresolved {
		e.logger.Warn("Connection placeholder unresolved; no env var or local database",
			zap.String("key", info.Key), zap.String("placeholder", info.URI))
	}

	db, err := e.pools.Get(ctx, info.URI)
	if err != nil {
		outcome = metrics.OutcomeDataAccess
		return nil, withApp(err, app.Key)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		outcome = metrics.OutcomeDataAccess
		return nil, &DataAccessError{App: app.Key, Op: "ping", Err: err}
	}

	qb := NewQueryBuilder(app)
	qb.SetTimeRange(req.Start, req.End)
	qb.SetFilters(req.Filters)
	qb.SetLimit(req.Limit)

	query, args, err := qb.Build(sqlx.BindType(db.DriverName()))
	if err != nil {
		outcome = metrics.OutcomeQuery
		return nil, &QueryError{App: app.Key, Err: err}
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, e.classify(app.Key, err, &outcome)
	}
	defer rows.Close()

	rs, err := scanRows(rows)
	if err != nil {
		return nil, e.classify(app.Key, err, &outcome)
	}

	rowCount = len(rs.Rows)
	metrics.QueryRows.Observe(float64(rowCount))
	if rowCount == 0 {
		outcome = metrics.OutcomeEmpty
	}
	return rs, nil
}

// PrunePools closes the pools of URIs no application resolves to any more,
// such as the previous target of a reloaded db override.
func (e *Executor) PrunePools() int {
	keep := make(map[string]bool)
	for _, info := range e.resolver.Connections() {
		keep[info.URI] = true
	}
	return e.pools.Retain(keep)
}

func (e *Executor) classify(appKey string, err error, outcome *string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		*outcome = metrics.OutcomeDataAccess
		return &DataAccessError{App: appKey, Op: "query", Err: err}
	}
	*outcome = metrics.OutcomeQuery
	return &QueryError{App: appKey, Err: err}
}

func withApp(err error, appKey string) error {
	var dae *DataAccessError
	if errors.As(err, &dae) && dae.App == "" {
		copied := *dae
		copied.App = appKey
		return &copied
	}
	return err
}

func emptyResultSet() *models.ResultSet {
	return &models.ResultSet{Columns: []string{}, Rows: []models.Row{}}
}

// Helper functions

type rowsScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRows(rows rowsScanner) (*models.ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := &models.ResultSet{Columns: columns, Rows: []models.Row{}}
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rs, nil
}

func scanRow(rows rowsScanner, columns []string) (models.Row, error) {
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(models.Row, len(columns))
	for i, name := range columns {
		row[i] = models.Field{Name: name, Value: normalizeValue(values[i])}
	}
	return row, nil
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return FormatTimestamp(val)
	default:
		return val
	}
}
