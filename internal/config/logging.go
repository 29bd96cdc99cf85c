package config

import "mednerd/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string          `yaml:"format" validate:"omitempty,oneof=json console"`
	File       string          `yaml:"file"`       // optional log file in addition to stderr
	Categories map[string]bool `yaml:"categories"` // per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories that are not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Options converts the config into logging package options.
func (c *LoggingConfig) Options() logging.Options {
	outputs := []string{"stderr"}
	if c.File != "" {
		outputs = append(outputs, c.File)
	}
	return logging.Options{
		Level:       c.Level,
		Format:      c.Format,
		OutputPaths: outputs,
		Categories:  c.Categories,
	}
}
