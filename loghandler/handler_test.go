package loghandler

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func TestCompactFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	logger.Info("round started", "tag", "session", "mode", "solo")

	line := strings.TrimSuffix(buf.String(), "\n")
	pattern := regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} \[session\] round started mode=solo$`)
	if !pattern.MatchString(line) {
		t.Errorf("unexpected line %q", line)
	}
}

func TestLevelShownForWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	logger.Warn("queue full", "tag", "storage")
	if !strings.Contains(buf.String(), " WARN [storage] queue full") {
		t.Errorf("expected WARN level before tag, got %q", buf.String())
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	logger.Debug("dropping stale task", "tag", "game")
	if buf.Len() != 0 {
		t.Errorf("expected debug to be filtered, got %q", buf.String())
	}
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo)).With("tag", "ws", "session", "s1")

	logger.Info("client authenticated", "user", "u1")
	if !strings.Contains(buf.String(), "[ws] client authenticated session=s1 user=u1") {
		t.Errorf("expected pre-set attrs in output, got %q", buf.String())
	}
}
