// Package logging provides config-driven categorized logging for mednerd.
// Every subsystem logs through a named category so that noisy areas (research,
// matching) can be silenced without touching the rest. Output is produced by zap.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot         Category = "boot"         // Boot/initialization, shutdown
	CategoryStore        Category = "store"        // Knowledge store load, learn, persist
	CategoryMatching     Category = "matching"     // Tiered match engine, document scanner
	CategoryResearch     Category = "research"     // Live fallback fetches
	CategoryArticulation Category = "articulation" // Response synthesis
	CategoryPerception   Category = "perception"   // Document text extraction
	CategoryAPI          Category = "api"          // HTTP surface
	CategorySeed         Category = "seed"         // Offline seeding crawler
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level       string          // debug, info, warn, error
	Format      string          // json, console
	OutputPaths []string        // zap sinks, e.g. "stderr" or a file path
	Categories  map[string]bool // per-category toggles; missing = enabled
}

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	base      = zap.NewNop()
	options   Options
	stateMu   sync.RWMutex
	loggers   = make(map[Category]*Logger)
	loggersMu sync.Mutex
)

// Initialize builds the zap logger from options and resets cached category loggers.
func Initialize(o Options) error {
	level, err := zapcore.ParseLevel(strings.ToLower(o.Level))
	if err != nil || o.Level == "" {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if o.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.OutputPaths = o.OutputPaths
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stderr"}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	UseLogger(l, o)
	return nil
}

// UseLogger installs an already built zap logger (the CLI and tests use this).
func UseLogger(l *zap.Logger, o Options) {
	if l == nil {
		l = zap.NewNop()
	}
	stateMu.Lock()
	base = l
	options = o
	stateMu.Unlock()

	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	stateMu.RLock()
	defer stateMu.RUnlock()

	if options.Categories == nil {
		return true
	}
	enabled, exists := options.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Disabled categories get a no-op logger.
func Get(category Category) *Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	var z *zap.Logger
	if IsCategoryEnabled(category) {
		stateMu.RLock()
		z = base.Named(string(category))
		stateMu.RUnlock()
	} else {
		z = zap.NewNop()
	}

	l := &Logger{category: category, sugar: z.WithOptions(zap.AddCallerSkip(1)).Sugar()}
	loggers[category] = l
	return l
}

// Sync flushes buffered log entries.
func Sync() error {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return base.Sync()
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger that attaches the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// Matching logs to the matching category
func Matching(format string, args ...interface{}) {
	Get(CategoryMatching).Info(format, args...)
}

// MatchingDebug logs debug to the matching category
func MatchingDebug(format string, args ...interface{}) {
	Get(CategoryMatching).Debug(format, args...)
}

// Research logs to the research category
func Research(format string, args ...interface{}) {
	Get(CategoryResearch).Info(format, args...)
}

// ResearchDebug logs debug to the research category
func ResearchDebug(format string, args ...interface{}) {
	Get(CategoryResearch).Debug(format, args...)
}

// ResearchWarn logs a warning to the research category
func ResearchWarn(format string, args ...interface{}) {
	Get(CategoryResearch).Warn(format, args...)
}

// ArticulationDebug logs debug to the articulation category
func ArticulationDebug(format string, args ...interface{}) {
	Get(CategoryArticulation).Debug(format, args...)
}

// PerceptionDebug logs debug to the perception category
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}

// API logs to the api category
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Info(format, args...)
}

// Seed logs to the seed category
func Seed(format string, args ...interface{}) {
	Get(CategorySeed).Info(format, args...)
}

// SeedDebug logs debug to the seed category
func SeedDebug(format string, args ...interface{}) {
	Get(CategorySeed).Debug(format, args...)
}

// =============================================================================
// TIMERS
// =============================================================================

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer starts timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
