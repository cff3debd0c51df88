package config

import (
	"crypto/subtle"
	"maps"
	"net/url"
	"sync"
)

// SMTPSettings are the outbound mail settings.
type SMTPSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"-"`
	UseTLS   bool   `json:"use_tls"`
	From     string `json:"from"`
}

// Site is the branding exposed to the page templates.
type Site struct {
	Title   string `json:"title"`
	Logo    string `json:"logo"`
	LogoAlt string `json:"logo_alt"`
}

// Runtime is the process-wide mutable configuration.
type Runtime struct {
	SMTP        SMTPSettings
	Site        Site
	ReloadToken string
	DBOverrides map[string]string
}

func (rt Runtime) clone() Runtime {
	rt.DBOverrides = maps.Clone(rt.DBOverrides)
	if rt.DBOverrides == nil {
		rt.DBOverrides = map[string]string{}
	}
	return rt
}

// ReloadSummary is returned by a successful reload. Connection strings are
// redacted and the SMTP password is never serialized.
type ReloadSummary struct {
	Reloaded    bool              `json:"reloaded"`
	Site        Site              `json:"site"`
	SMTP        SMTPSettings      `json:"smtp"`
	DBOverrides map[string]string `json:"db_overrides"`
}

// Store owns the Runtime value. Readers get copies; the only mutation path is
// a field-level merge of the deploy file, either at startup or through an
// authorized Reload.
type Store struct {
	mu         sync.RWMutex
	rt         Runtime
	envToken   string
	deployPath string
	knownKey   func(string) bool
}

// NewStore creates a store from the environment-derived base settings.
// envToken takes precedence over any reload_token in the deploy file.
// knownKey filters DB overrides to registered config keys; nil accepts all.
func NewStore(base Runtime, envToken, deployPath string, knownKey func(string) bool) *Store {
	return &Store{
		rt:         base.clone(),
		envToken:   envToken,
		deployPath: deployPath,
		knownKey:   knownKey,
	}
}

// Load reads the deploy file once and merges it. Used at startup.
func (s *Store) Load() (bool, error) {
	df, found, err := LoadDeployFile(s.deployPath)
	if err != nil || !found {
		return found, err
	}
	s.Merge(df)
	return true, nil
}

// Merge applies a deploy file field by field. Empty values never clear a
// live setting.
func (s *Store) Merge(df *DeployFile) {
	if df == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, conn := range df.DBOverrides {
		if conn == "" {
			continue
		}
		if s.knownKey != nil && !s.knownKey(key) {
			continue
		}
		s.rt.DBOverrides[key] = conn
	}

	if o := df.SMTP; o != nil {
		smtp := &s.rt.SMTP
		smtp.Host = pick(o.Host, smtp.Host)
		if o.Port > 0 {
			smtp.Port = o.Port
		}
		smtp.User = pick(o.User, smtp.User)
		smtp.Password = pick(o.Password, smtp.Password)
		if o.UseTLS != nil {
			smtp.UseTLS = *o.UseTLS
		}
		smtp.From = pick(o.From, smtp.From)
	}

	if o := df.Site; o != nil {
		s.rt.Site.Title = pick(o.Title, s.rt.Site.Title)
		s.rt.Site.Logo = pick(o.Logo, s.rt.Site.Logo)
		s.rt.Site.LogoAlt = pick(o.LogoAlt, s.rt.Site.LogoAlt)
	}

	if df.ReloadToken != "" {
		s.rt.ReloadToken = df.ReloadToken
	}
}

func pick(override, current string) string {
	if override != "" {
		return override
	}
	return current
}

// Snapshot returns a copy of the current runtime configuration.
func (s *Store) Snapshot() Runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rt.clone()
}

// SMTP returns the current mail settings.
func (s *Store) SMTP() SMTPSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rt.SMTP
}

// Site returns the current branding.
func (s *Store) Site() Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rt.Site
}

// ConnectionOverride returns the deploy override for a config key, if any.
func (s *Store) ConnectionOverride(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rt.DBOverrides[key]
}

// ExpectedToken returns the configured reload token, or "" when none is set.
func (s *Store) ExpectedToken() string {
	if s.envToken != "" {
		return s.envToken
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rt.ReloadToken
}

// Authorize checks a presented reload token.
func (s *Store) Authorize(token string) error {
	expected := s.ExpectedToken()
	if expected == "" {
		return ErrReloadNotConfigured
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Reload re-reads the deploy file and merges it into the live settings.
// Reloading the same file twice yields the same state.
func (s *Store) Reload(token string) (ReloadSummary, error) {
	if err := s.Authorize(token); err != nil {
		return ReloadSummary{}, err
	}

	if _, err := s.Load(); err != nil {
		return ReloadSummary{}, err
	}

	rt := s.Snapshot()
	overrides := make(map[string]string, len(rt.DBOverrides))
	for key, conn := range rt.DBOverrides {
		overrides[key] = RedactURI(conn)
	}

	return ReloadSummary{
		Reloaded:    true,
		Site:        rt.Site,
		SMTP:        rt.SMTP,
		DBOverrides: overrides,
	}, nil
}

// RedactURI masks the password of a connection URI.
func RedactURI(uri string) string {
	if IsPlaceholder(uri) {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "***"
	}
	if u.User == nil {
		return uri
	}
	return u.Redacted()
}
