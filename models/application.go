package models

import (
	"fmt"
	"strings"
)

// MatchMode decides how the session id filter is bound.
type MatchMode string

const (
	// MatchExact binds the session id unchanged for equality comparison.
	MatchExact MatchMode = "exact"
	// MatchPattern wraps the session id in wildcards for LIKE comparison.
	MatchPattern MatchMode = "pattern"
)

// ParseMatchMode validates a registry match_mode value. Empty means unset.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case MatchExact:
		return MatchExact, nil
	case MatchPattern:
		return MatchPattern, nil
	default:
		return "", fmt.Errorf("unknown match_mode %q (expected exact or pattern)", s)
	}
}

// Application is one logical, user-selectable log source.
// Each application owns its own schema, query template and connection.
// DisplayName is the external selector; Key is the internal config key and
// names the local fallback database file.
type Application struct {
	Key              string    `json:"key"`
	DisplayName      string    `json:"display_name"`
	ConnectionString string    `json:"-"`
	SelectQuery      string    `json:"-"`
	MatchMode        MatchMode `json:"match_mode"`
}

// ConnectionInfo is the outcome of resolving an application's descriptor.
// Unresolved is set when an indirection token could not be substituted; the
// token is left in URI so the connection attempt fails downstream.
type ConnectionInfo struct {
	Key        string
	URI        string
	Unresolved bool
}
