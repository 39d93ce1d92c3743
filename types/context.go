package types

import "go.uber.org/zap"

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version string
	Logger  *zap.SugaredLogger
	LogFile string // empty when diagnostics go to stderr
}

// Log returns the context logger, or a no-op logger when none was configured
func (c *AppContext) Log() *zap.SugaredLogger {
	if c == nil || c.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.Logger
}

// VersionString returns the version, or DefaultVersion when unset
func (c *AppContext) VersionString() string {
	if c == nil || c.Version == "" {
		return DefaultVersion
	}
	return c.Version
}
