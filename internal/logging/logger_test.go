package logging

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, o Options) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	UseLogger(zap.New(core), o)
	t.Cleanup(func() { UseLogger(nil, Options{}) })
	return logs
}

func TestCategoryLoggerNamesEntries(t *testing.T) {
	logs := observe(t, Options{})

	Store("loaded %d conditions", 3)
	ResearchDebug("checking %s", "https://example.test/x/")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "store" || entries[0].Message != "loaded 3 conditions" {
		t.Errorf("unexpected store entry: %+v", entries[0])
	}
	if entries[1].LoggerName != "research" || entries[1].Level != zapcore.DebugLevel {
		t.Errorf("unexpected research entry: %+v", entries[1])
	}
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, Options{Categories: map[string]bool{"research": false}})

	Research("should not appear")
	Matching("should appear")

	if logs.FilterLoggerName("research").Len() != 0 {
		t.Error("expected research category to be disabled")
	}
	if logs.FilterLoggerName("matching").Len() != 1 {
		t.Error("expected matching category to log")
	}
}

func TestWithAttachesFields(t *testing.T) {
	logs := observe(t, Options{})

	Get(CategoryAPI).With("request_id", "abc").Info("handled")

	entry := logs.All()[0]
	if got := entry.ContextMap()["request_id"]; got != "abc" {
		t.Errorf("expected request_id=abc, got %v", got)
	}
}

func TestTimerThreshold(t *testing.T) {
	logs := observe(t, Options{})

	StartTimer(CategoryStore, "persist").StopWithThreshold(0)

	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Fatal("expected a slow-operation warning")
	}
	if !strings.Contains(logs.All()[0].Message, "persist took") {
		t.Errorf("unexpected message: %s", logs.All()[0].Message)
	}
}

func TestInitializeWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mednerd.log")
	if err := Initialize(Options{Level: "debug", Format: "json", OutputPaths: []string{path}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { UseLogger(nil, Options{}) })

	Boot("hello %s", "world")
	_ = Sync()

	if !IsCategoryEnabled(CategoryBoot) {
		t.Error("boot should be enabled by default")
	}
}

func TestInitializeDefaultsToStderr(t *testing.T) {
	if err := Initialize(Options{Level: "not-a-level"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { UseLogger(nil, Options{}) })

	Get(CategoryBoot).Info("stderr sink")
	if !IsCategoryEnabled(CategoryAPI) {
		t.Error("api should be enabled by default")
	}
}
