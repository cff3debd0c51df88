package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"logportal/models"

	"gopkg.in/yaml.v3"
)

var likeSessionParam = regexp.MustCompile(`(?i)\blike\s+:jsid\b`)

type registryEntry struct {
	DisplayName      string `yaml:"display_name"`
	ConnectionString string `yaml:"connection_string"`
	SelectQuery      string `yaml:"select_query"`
	MatchMode        string `yaml:"match_mode"`
}

// Registry maps display names to applications. It is immutable after load.
type Registry struct {
	apps   []models.Application
	byName map[string]int
	byKey  map[string]int
}

// LoadRegistry reads the application registry file. JSON and YAML are both
// accepted; entries keep their file order.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}

	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}
	return reg, nil
}

// ParseRegistry decodes a registry document of the form
// {config_key: {display_name, connection_string, select_query, match_mode}}.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("registry is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("registry must be a mapping of config keys to applications")
	}

	apps := make([]models.Application, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value

		var entry registryEntry
		if err := root.Content[i+1].Decode(&entry); err != nil {
			return nil, fmt.Errorf("application %q: %w", key, err)
		}

		mode, err := models.ParseMatchMode(entry.MatchMode)
		if err != nil {
			return nil, fmt.Errorf("application %q: %w", key, err)
		}

		apps = append(apps, models.Application{
			Key:              key,
			DisplayName:      entry.DisplayName,
			ConnectionString: entry.ConnectionString,
			SelectQuery:      entry.SelectQuery,
			MatchMode:        mode,
		})
	}

	return NewRegistry(apps)
}

// NewRegistry validates the applications and builds the lookup indexes.
// A missing match mode is derived once here from the template: a LIKE
// comparison against :jsid means pattern matching.
func NewRegistry(apps []models.Application) (*Registry, error) {
	reg := &Registry{
		apps:   make([]models.Application, 0, len(apps)),
		byName: make(map[string]int, len(apps)),
		byKey:  make(map[string]int, len(apps)),
	}

	for _, app := range apps {
		switch {
		case app.Key == "":
			return nil, errors.New("application with empty config key")
		case strings.TrimSpace(app.DisplayName) == "":
			return nil, fmt.Errorf("application %q: display_name is required", app.Key)
		case strings.TrimSpace(app.SelectQuery) == "":
			return nil, fmt.Errorf("application %q: select_query is required", app.Key)
		}
		if _, dup := reg.byKey[app.Key]; dup {
			return nil, fmt.Errorf("duplicate config key %q", app.Key)
		}
		if _, dup := reg.byName[app.DisplayName]; dup {
			return nil, fmt.Errorf("duplicate display_name %q", app.DisplayName)
		}

		if app.MatchMode == "" {
			app.MatchMode = deriveMatchMode(app.SelectQuery)
		}

		reg.byKey[app.Key] = len(reg.apps)
		reg.byName[app.DisplayName] = len(reg.apps)
		reg.apps = append(reg.apps, app)
	}

	return reg, nil
}

func deriveMatchMode(query string) models.MatchMode {
	if likeSessionParam.MatchString(query) {
		return models.MatchPattern
	}
	return models.MatchExact
}

// Lookup returns the application registered under displayName.
func (r *Registry) Lookup(displayName string) (models.Application, error) {
	i, ok := r.byName[displayName]
	if !ok {
		return models.Application{}, fmt.Errorf("%w: %q", ErrNotFound, displayName)
	}
	return r.apps[i], nil
}

// ByKey returns the application registered under the config key.
func (r *Registry) ByKey(key string) (models.Application, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return models.Application{}, false
	}
	return r.apps[i], true
}

// Has reports whether displayName is a known application.
func (r *Registry) Has(displayName string) bool {
	_, ok := r.byName[displayName]
	return ok
}

// Applications returns a copy of all applications in registry order.
func (r *Registry) Applications() []models.Application {
	out := make([]models.Application, len(r.apps))
	copy(out, r.apps)
	return out
}

// DisplayNames returns the selectable application names in registry order.
func (r *Registry) DisplayNames() []string {
	names := make([]string, len(r.apps))
	for i, app := range r.apps {
		names[i] = app.DisplayName
	}
	return names
}
