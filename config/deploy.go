package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeployFile is the optional deployment override document.
type DeployFile struct {
	DBOverrides map[string]string `yaml:"db_overrides"`
	SMTP        *SMTPOverride     `yaml:"smtp"`
	Site        *SiteOverride     `yaml:"site"`
	ReloadToken string            `yaml:"reload_token"`
}

// SMTPOverride carries mail settings from the deploy file. Empty fields
// leave the live value untouched; UseTLS is only applied when present.
type SMTPOverride struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	UseTLS   *bool  `yaml:"use_tls"`
	From     string `yaml:"from"`
}

// SiteOverride carries branding from the deploy file.
type SiteOverride struct {
	Title   string `yaml:"title"`
	Logo    string `yaml:"logo"`
	LogoAlt string `yaml:"logo_alt"`
}

// LoadDeployFile reads the deploy override file. A missing file is not an
// error: it returns nil and found=false.
func LoadDeployFile(path string) (*DeployFile, bool, error) {
	if path == "" {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ConfigError{Source: path, Err: err}
	}

	var df DeployFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, true, &ConfigError{Source: path, Err: fmt.Errorf("failed to parse deploy config: %w", err)}
	}
	return &df, true, nil
}
