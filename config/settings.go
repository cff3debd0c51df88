package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultPort         = 5000
	defaultRegistryPath = "db_config.json"
	defaultDeployPath   = "deploy_config.json"
	defaultLocalDBDir   = "db"
	defaultLogFile      = "logs/app.log"
	defaultLogLevel     = "info"
	defaultQueryTimeout = 60 * time.Second
	defaultMaxOpenConns = 10
	defaultSMTPFrom     = "noreply@example.com"
	defaultSiteTitle    = "Application Logs Portal"
	defaultLogoAlt      = "Logo"
)

// Settings is the process configuration: defaults, then environment, then
// command-line flags bound by the caller.
type Settings struct {
	Port         int           `mapstructure:"port"`
	RegistryPath string        `mapstructure:"db-config-path"`
	DeployPath   string        `mapstructure:"deploy-config-path"`
	LocalDBDir   string        `mapstructure:"local-db-dir"`
	LogFile      string        `mapstructure:"log-file"`
	LogLevel     string        `mapstructure:"log-level"`
	QueryTimeout time.Duration `mapstructure:"query-timeout"`
	MaxOpenConns int           `mapstructure:"db-max-open-conns"`
	Strict       bool          `mapstructure:"-"`
	ReloadToken  string        `mapstructure:"reload-token"`
	SMTP         SMTPSettings  `mapstructure:"-"`
	Site         Site          `mapstructure:"-"`
}

// NewViper returns a viper instance with defaults and environment bindings.
// Keys use dashes; the matching environment variable is upper-cased with
// underscores (db-config-path -> DB_CONFIG_PATH).
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("port", defaultPort)
	v.SetDefault("db-config-path", defaultRegistryPath)
	v.SetDefault("deploy-config-path", defaultDeployPath)
	v.SetDefault("local-db-dir", defaultLocalDBDir)
	v.SetDefault("log-file", defaultLogFile)
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("db-max-open-conns", defaultMaxOpenConns)
	v.SetDefault("fail-on-unresolved-db-placeholders", "false")
	v.SetDefault("reload-token", "")

	v.SetDefault("smtp-host", "")
	v.SetDefault("smtp-port", 0)
	v.SetDefault("smtp-user", "")
	v.SetDefault("smtp-pass", "")
	v.SetDefault("smtp-use-tls", "true")
	_ = v.BindEnv("smtp-from", "SMTP_FROM", "EMAIL_FROM")
	v.SetDefault("smtp-from", defaultSMTPFrom)

	v.SetDefault("site-title", defaultSiteTitle)
	v.SetDefault("site-logo", "")
	v.SetDefault("site-logo-alt", defaultLogoAlt)

	return v
}

// LoadSettings reads Settings out of v.
func LoadSettings(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return s, &ConfigError{Source: "settings", Err: err}
	}

	if s.Port <= 0 || s.Port > 65535 {
		return s, &ConfigError{Source: "settings", Err: fmt.Errorf("invalid port: %d", s.Port)}
	}
	if s.QueryTimeout < 0 {
		return s, &ConfigError{Source: "settings", Err: fmt.Errorf("invalid query-timeout: %s", s.QueryTimeout)}
	}
	if s.MaxOpenConns <= 0 {
		s.MaxOpenConns = defaultMaxOpenConns
	}

	s.Strict = Truthy(v.GetString("fail-on-unresolved-db-placeholders"))

	smtpPort := v.GetInt("smtp-port")
	if smtpPort < 0 || smtpPort > 65535 {
		return s, &ConfigError{Source: "settings", Err: fmt.Errorf("invalid smtp port: %d", smtpPort)}
	}
	s.SMTP = SMTPSettings{
		Host:     v.GetString("smtp-host"),
		Port:     smtpPort,
		User:     v.GetString("smtp-user"),
		Password: v.GetString("smtp-pass"),
		UseTLS:   Truthy(v.GetString("smtp-use-tls")),
		From:     v.GetString("smtp-from"),
	}
	s.Site = Site{
		Title:   v.GetString("site-title"),
		Logo:    v.GetString("site-logo"),
		LogoAlt: v.GetString("site-logo-alt"),
	}

	return s, nil
}

// Runtime returns the environment-derived base of the runtime configuration.
// The reload token is kept out of it; it is passed to NewStore separately.
func (s Settings) Runtime() Runtime {
	return Runtime{
		SMTP:        s.SMTP,
		Site:        s.Site,
		DBOverrides: map[string]string{},
	}
}

// Truthy accepts 1/true/yes/on in any case.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
