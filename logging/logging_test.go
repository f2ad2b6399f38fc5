package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitLoggerWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	closer, err := InitLogger(Options{Dir: dir, Level: slog.LevelInfo, RetentionWeeks: 1, Console: &console})
	if err != nil {
		t.Fatalf("InitLogger returned error: %v", err)
	}

	Info("records loaded", "count", 3)
	Debug("hidden at info level")

	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if !strings.Contains(console.String(), "records loaded") {
		t.Errorf("console output missing message: %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}

	files, _ := filepath.Glob(filepath.Join(dir, FilePrefix+"*.log"))
	if len(files) != 1 {
		t.Fatalf("expected one log file, got %v", files)
	}
	content, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"records loaded"`) {
		t.Errorf("file should hold JSON lines, got %q", content)
	}
}

func TestRotatingFileSplitsOnSize(t *testing.T) {
	dir := t.TempDir()
	rf, err := OpenRotatingFile(dir, 1, 32)
	if err != nil {
		t.Fatalf("OpenRotatingFile returned error: %v", err)
	}
	defer rf.Close()

	line := []byte(strings.Repeat("x", 20) + "\n")
	for i := 0; i < 3; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
	}

	week := weekKey(time.Now())
	for _, name := range []string{
		FilePrefix + week + ".log",
		FilePrefix + week + "_01.log",
		FilePrefix + week + "_02.log",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestRotatingFileSwitchesWeek(t *testing.T) {
	dir := t.TempDir()
	rf, err := OpenRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile returned error: %v", err)
	}
	defer rf.Close()

	rf.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := rf.Write([]byte("next week\n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	want := FilePrefix + weekKey(rf.now()) + ".log"
	if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
		t.Errorf("expected %s to exist: %v", want, err)
	}
}

func TestRotatingFileCleanup(t *testing.T) {
	dir := t.TempDir()
	rf, err := OpenRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile returned error: %v", err)
	}
	defer rf.Close()

	old := filepath.Join(dir, FilePrefix+"2020-W01.log")
	other := filepath.Join(dir, "unrelated.log")
	for _, p := range []string{old, other} {
		if err := os.WriteFile(p, []byte("x"), 0640); err != nil {
			t.Fatal(err)
		}
		stale := time.Now().Add(-30 * 24 * time.Hour)
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := rf.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 file removed, got %d", removed)
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("files without the log prefix must be kept")
	}
}

func TestRequestLogger(t *testing.T) {
	var out bytes.Buffer
	SetOutput(&out, slog.LevelInfo)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	tests := []struct {
		path   string
		logged bool
	}{
		{"/health", false},
		{"/metrics", false},
		{"/favicon.ico", false},
		{"/api/records?name=para", true},
		{"/", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusTeapot {
				t.Errorf("status not forwarded: %d", rr.Code)
			}
			logs := out.String()
			if !tt.logged {
				if logs != "" {
					t.Errorf("expected no log line, got %q", logs)
				}
				return
			}
			for _, want := range []string{"request_id=req-42", "status_code=418", "bytes_written=15"} {
				if !strings.Contains(logs, want) {
					t.Errorf("log line missing %s: %q", want, logs)
				}
			}
		})
	}
}
