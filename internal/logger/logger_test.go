package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"
)

// capture redirects output to a buffer at the given level and restores the
// package defaults when the test ends.
func capture(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(l)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		SetTimestamps(false)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, LevelWarn)

	SetVerbose(true)
	if !IsVerbose() || GetLevel() != LevelDebug {
		t.Fatalf("verbose: level = %v", GetLevel())
	}
	SetVerbose(false)
	if IsVerbose() || GetLevel() != LevelWarn {
		t.Fatalf("quiet: level = %v", GetLevel())
	}
}

func TestThresholds(t *testing.T) {
	emit := func() {
		Debug("d %d", 1)
		Info("i %s", "x")
		Warn("w")
		Error("e: %s", "boom")
	}

	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "[DEBUG] d 1\n[INFO] i x\n[WARN] w\n[ERROR] e: boom\n"},
		{LevelInfo, "[INFO] i x\n[WARN] w\n[ERROR] e: boom\n"},
		{LevelWarn, "[WARN] w\n[ERROR] e: boom\n"},
		{LevelError, "[ERROR] e: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			buf := capture(t, tt.level)
			emit()
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSection_OnlyWhenDebugging(t *testing.T) {
	buf := capture(t, LevelInfo)
	Section("Sync")
	if buf.Len() != 0 {
		t.Fatalf("section printed at info: %q", buf.String())
	}

	SetLevel(LevelDebug)
	Section("Sync")
	if got := buf.String(); got != "\n=== Sync ===\n" {
		t.Errorf("unexpected section output: %q", got)
	}
}

func TestTimestamps(t *testing.T) {
	buf := capture(t, LevelInfo)
	SetTimestamps(true)
	now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.FixedZone("X", 3600)) }

	Info("started")

	if got := buf.String(); got != "2026-05-04T02:02:01Z [INFO] started\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		want    Level
		wantErr bool
	}{
		"debug":     {LevelDebug, false},
		" INFO ":    {LevelInfo, false},
		"":          {LevelInfo, false},
		"warning":   {LevelWarn, false},
		"error":     {LevelError, false},
		"loud":      {LevelInfo, true},
		"level(42)": {LevelInfo, true},
	}
	for in, tt := range tests {
		got, err := ParseLevel(in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
}

func TestLevelString(t *testing.T) {
	if got := Level(9).String(); got != "level(9)" {
		t.Errorf("unknown level string = %q", got)
	}
}

func TestConcurrentWrites(t *testing.T) {
	buf := capture(t, LevelDebug)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debug("worker %d", n)
			_ = IsVerbose()
		}(i)
	}
	wg.Wait()

	if got := bytes.Count(buf.Bytes(), []byte("\n")); got != 10 {
		t.Errorf("expected 10 lines, got %d", got)
	}
}
