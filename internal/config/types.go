package config

// Config is the root configuration for ussdd.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Tree    TreeConfig    `yaml:"tree,omitempty"`
	CDP     CDPConfig     `yaml:"cdp,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// SessionConfig defines session lifetime behavior. Timeout is measured from
// session start, not last activity.
type SessionConfig struct {
	TimeoutMinutes int `yaml:"timeoutMinutes,omitempty"`
	SweepSeconds   int `yaml:"sweepSeconds,omitempty"`
}

// TreeConfig selects where the menu-tree document is kept.
type TreeConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "memory"
}

// CDPConfig configures the analytics collector. An empty endpoint disables
// dispatching entirely.
type CDPConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	WriteKey string `yaml:"writeKey,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}
