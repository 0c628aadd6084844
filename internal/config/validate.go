package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}

	if cfg.Session.TimeoutMinutes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.timeoutMinutes",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Session.TimeoutMinutes),
		})
	}
	if cfg.Session.SweepSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.sweepSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Session.SweepSeconds),
		})
	}

	validStores := []string{"sqlite", "memory"}
	if cfg.Tree.Store != "" && !slices.Contains(validStores, cfg.Tree.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "tree.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Tree.Store),
		})
	}

	if cfg.CDP.Endpoint != "" {
		if u, err := url.Parse(cfg.CDP.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "cdp.endpoint",
				Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.CDP.Endpoint),
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
