package config

import (
	"os"
	"path/filepath"
	"strings"

	"logportal/models"
)

// OverrideSource supplies deploy-time connection overrides by config key.
type OverrideSource interface {
	ConnectionOverride(key string) string
}

// Resolver turns an application's connection descriptor into a usable URI.
// Resolution runs on every call so credentials exported or fallback files
// created after startup are picked up.
type Resolver struct {
	Registry  *Registry
	Overrides OverrideSource
	LocalDir  string

	// LookupEnv and FileExists default to the process environment and filesystem.
	LookupEnv  func(string) (string, bool)
	FileExists func(string) bool
}

// NewResolver creates a Resolver reading the real environment and filesystem.
func NewResolver(reg *Registry, overrides OverrideSource, localDir string) *Resolver {
	return &Resolver{
		Registry:   reg,
		Overrides:  overrides,
		LocalDir:   localDir,
		LookupEnv:  os.LookupEnv,
		FileExists: fileExists,
	}
}

// Resolve returns the connection for a display name, or ErrNotFound.
//
// A ${VAR} descriptor is substituted from the environment when VAR is set and
// non-empty, otherwise from <LocalDir>/<key>.db when that file exists. When
// neither is available the token is returned unchanged with Unresolved set;
// the connection attempt fails downstream rather than here.
func (r *Resolver) Resolve(displayName string) (models.ConnectionInfo, error) {
	app, err := r.Registry.Lookup(displayName)
	if err != nil {
		return models.ConnectionInfo{}, err
	}
	return r.resolveApp(app), nil
}

// Lookup returns the registered application for a display name.
func (r *Resolver) Lookup(displayName string) (models.Application, error) {
	return r.Registry.Lookup(displayName)
}

// Connections resolves every registered application, in registry order.
func (r *Resolver) Connections() []models.ConnectionInfo {
	apps := r.Registry.Applications()
	out := make([]models.ConnectionInfo, 0, len(apps))
	for _, app := range apps {
		out = append(out, r.resolveApp(app))
	}
	return out
}

// Unresolved lists every application whose descriptor cannot currently be resolved.
func (r *Resolver) Unresolved() []models.ConnectionInfo {
	var out []models.ConnectionInfo
	for _, app := range r.Registry.Applications() {
		if info := r.resolveApp(app); info.Unresolved {
			out = append(out, info)
		}
	}
	return out
}

func (r *Resolver) resolveApp(app models.Application) models.ConnectionInfo {
	descriptor := app.ConnectionString
	if r.Overrides != nil {
		if override := r.Overrides.ConnectionOverride(app.Key); override != "" {
			descriptor = override
		}
	}

	envName, ok := placeholderName(descriptor)
	if !ok {
		return models.ConnectionInfo{Key: app.Key, URI: descriptor}
	}

	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if val, ok := lookup(envName); ok && val != "" {
		return models.ConnectionInfo{Key: app.Key, URI: val}
	}

	exists := r.FileExists
	if exists == nil {
		exists = fileExists
	}
	local := filepath.Join(r.LocalDir, app.Key+".db")
	if exists(local) {
		return models.ConnectionInfo{Key: app.Key, URI: "sqlite:///" + local}
	}

	return models.ConnectionInfo{Key: app.Key, URI: descriptor, Unresolved: true}
}

// CheckPlaceholders is the startup safety valve. In strict mode any
// unresolved placeholder is an error; otherwise the list is only returned.
func CheckPlaceholders(r *Resolver, strict bool) ([]models.ConnectionInfo, error) {
	unresolved := r.Unresolved()
	if strict && len(unresolved) > 0 {
		return unresolved, &UnresolvedError{Entries: unresolved}
	}
	return unresolved, nil
}

// IsPlaceholder reports whether s is a ${VAR} indirection token.
func IsPlaceholder(s string) bool {
	_, ok := placeholderName(s)
	return ok
}

func placeholderName(s string) (string, bool) {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") || len(s) < 4 {
		return "", false
	}
	return s[2 : len(s)-1], true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
