package logger

import (
	"log/slog"
	"strings"
	"sync"
)

// ComponentLevels manages per-component logging levels. It supports
// hierarchical component names where more specific components override less
// specific ones (e.g. "metrics.prometheus" overrides "metrics").
type ComponentLevels struct {
	defaultLevel slog.Level
	components   map[string]slog.Level
	mu           sync.RWMutex
}

// NewComponentLevels creates a new ComponentLevels with the given default level.
func NewComponentLevels(defaultLevel slog.Level) *ComponentLevels {
	return &ComponentLevels{
		defaultLevel: defaultLevel,
		components:   make(map[string]slog.Level),
	}
}

// SetComponentLevel sets the log level for a specific component.
// Component names use dot notation (e.g. "metrics.prometheus").
func (c *ComponentLevels) SetComponentLevel(component string, level slog.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[component] = level
}

// SetDefaultLevel sets the default log level.
func (c *ComponentLevels) SetDefaultLevel(level slog.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultLevel = level
}

// LevelFor returns the log level for the given component.
// It checks for an exact match first, then walks up the hierarchy:
// "metrics.prometheus" falls back to "metrics" before the default.
func (c *ComponentLevels) LevelFor(component string) slog.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if level, ok := c.components[component]; ok {
		return level
	}

	for {
		lastDot := strings.LastIndex(component, ".")
		if lastDot == -1 {
			break
		}
		component = component[:lastDot]
		if level, ok := c.components[component]; ok {
			return level
		}
	}

	return c.defaultLevel
}

// globalComponentLevels is the global component configuration.
var globalComponentLevels = NewComponentLevels(slog.LevelInfo)

// LoggingSpec defines the logging configuration for the Configure function.
// This mirrors the config package's logging section to avoid import cycles.
type LoggingSpec struct {
	DefaultLevel string
	Format       string // "json" or "text"
	CommonFields map[string]string
	Components   []ComponentLoggingSpec
}

// ComponentLoggingSpec configures logging for a specific component.
type ComponentLoggingSpec struct {
	Name  string
	Level string
}

// Log format constants
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Configure applies a LoggingSpec to the global logger.
// This reconfigures the logger with the new settings.
func Configure(cfg *LoggingSpec) error {
	if cfg == nil {
		return nil
	}

	// A custom logger installed via SetLogger() wins.
	if customHandler != nil {
		return nil
	}

	defaultLevel := slog.LevelInfo
	if cfg.DefaultLevel != "" {
		defaultLevel = ParseLevel(cfg.DefaultLevel)
	}

	var commonFields []slog.Attr
	for k, v := range cfg.CommonFields {
		commonFields = append(commonFields, slog.String(k, v))
	}

	levels := NewComponentLevels(defaultLevel)
	for _, comp := range cfg.Components {
		levels.SetComponentLevel(comp.Name, ParseLevel(comp.Level))
	}
	globalComponentLevels = levels

	useJSON := cfg.Format == FormatJSON
	initLoggerWithConfig(defaultLevel, commonFields, levels, useJSON)

	return nil
}

// initLoggerWithConfig creates the logger with full configuration.
func initLoggerWithConfig(level slog.Level, commonFields []slog.Attr, levels *ComponentLevels, useJSON bool) {
	var baseHandler slog.Handler
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if useJSON {
		baseHandler = slog.NewJSONHandler(logOutput, opts)
	} else {
		baseHandler = slog.NewTextHandler(logOutput, opts)
	}

	var handler slog.Handler
	if levels != nil && len(levels.components) > 0 {
		handler = NewComponentHandler(baseHandler, levels, commonFields...)
	} else {
		handler = NewContextHandler(baseHandler, commonFields...)
	}

	DefaultLogger = slog.New(handler)
	slog.SetDefault(DefaultLogger)
}

// GetComponentLevels returns the global component configuration.
// This is primarily for testing.
func GetComponentLevels() *ComponentLevels {
	return globalComponentLevels
}
