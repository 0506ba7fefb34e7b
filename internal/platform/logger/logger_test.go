package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerRedactsSecretKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromCore(core)

	log.Info("connecting", "redis_password", "hunter2", "dsn", "postgres://app:s3cret@db:5432/curriculum")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["redis_password"]; got != "[REDACTED]" {
		t.Fatalf("password not redacted: %v", got)
	}
	if got := fields["dsn"]; got != "postgres://app:[REDACTED]@db:5432/curriculum" {
		t.Fatalf("dsn not redacted: %v", got)
	}
}

func TestLoggerWithKeepsContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromCore(core).With("service", "PackageRetrieval")

	log.Warn("cache miss", "course_id", "c1")

	entries := logs.FilterMessage("cache miss").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["service"] != "PackageRetrieval" || fields["course_id"] != "c1" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestRedactDSNLeavesPlainStrings(t *testing.T) {
	for _, in := range []string{"", "plain", "redis://host:6379", "http://example.com/a:b"} {
		if got := redactDSN(in); got != in {
			t.Fatalf("redactDSN(%q) = %q", in, got)
		}
	}
}
