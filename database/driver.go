package database

import (
	"fmt"
	"strings"

	"logportal/config"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

// pgExecMode makes pgx interpolate arguments client-side. Registry templates
// test optional filters with a bare ":jsid IS NULL", whose type a server-side
// prepare cannot infer.
const pgExecMode = "default_query_exec_mode"

// ParseConnection maps a connection URI to a database/sql driver name and DSN.
//
// Supported forms:
//
//	sqlite:///relative/path.db    -> sqlite, relative/path.db
//	sqlite:////absolute/path.db   -> sqlite, /absolute/path.db
//	postgres://..., postgresql://..., postgresql+psycopg2://... -> pgx
//
// Postgres DSNs get default_query_exec_mode=simple_protocol unless the URI
// already names an exec mode.
//
// The URI is never echoed back in errors since it may carry credentials.
func ParseConnection(uri string) (driver, dsn string, err error) {
	if config.IsPlaceholder(uri) {
		return "", "", &DataAccessError{Op: "resolve", Err: ErrUnresolvedPlaceholder}
	}

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return "", "", &DataAccessError{Op: "resolve", Err: fmt.Errorf("%w: missing scheme", ErrUnsupportedScheme)}
	}

	scheme = strings.ToLower(scheme)
	base, _, _ := strings.Cut(scheme, "+")

	switch base {
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(rest, "/")
		if path == "" {
			path = ":memory:"
		}
		return driverSQLite, path, nil
	case "postgres", "postgresql":
		return driverPostgres, withExecMode("postgres://" + rest), nil
	default:
		return "", "", &DataAccessError{Op: "resolve", Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)}
	}
}

func withExecMode(dsn string) string {
	_, query, _ := strings.Cut(dsn, "?")
	for _, kv := range strings.Split(query, "&") {
		if name, _, _ := strings.Cut(kv, "="); name == pgExecMode {
			return dsn
		}
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + pgExecMode + "=simple_protocol"
}
