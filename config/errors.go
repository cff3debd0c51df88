package config

import (
	"errors"
	"fmt"
	"strings"

	"logportal/models"
)

var (
	// ErrNotFound is returned when a display name is not in the registry.
	ErrNotFound = errors.New("application not found")

	// ErrReloadNotConfigured is returned by Reload when no token is configured.
	ErrReloadNotConfigured = errors.New("reload token not configured on server")

	// ErrInvalidToken is returned by Reload for a missing or mismatched token.
	ErrInvalidToken = errors.New("invalid reload token")
)

// ConfigError reports an unreadable or invalid configuration source.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UnresolvedError lists connection placeholders that could not be resolved.
type UnresolvedError struct {
	Entries []models.ConnectionInfo
}

func (e *UnresolvedError) Error() string {
	parts := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		parts[i] = fmt.Sprintf("%s=%s", entry.Key, entry.URI)
	}
	return fmt.Sprintf("unresolved DB connection placeholders: %s", strings.Join(parts, ", "))
}
