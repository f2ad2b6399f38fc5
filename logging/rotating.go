package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FilePrefix starts every log file name, e.g. smpc-2026-W07.log
const FilePrefix = "smpc-"

var numberedFile = regexp.MustCompile(`^` + regexp.QuoteMeta(FilePrefix) + `\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingFile is an io.Writer over one log file per ISO week. A week's file
// is split into numbered parts once it reaches maxSize bytes.
type RotatingFile struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	size int64

	stop    context.CancelFunc
	stopped chan struct{}
}

// OpenRotatingFile creates dir if needed and opens the file for the current
// week. A maxSize of zero disables size based rotation.
func OpenRotatingFile(dir string, retentionWeeks int, maxSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	rf := &RotatingFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		stopped:   make(chan struct{}),
	}

	rf.mu.Lock()
	err := rf.rotate(weekKey(rf.now()), false)
	rf.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rf.stop = cancel
	go rf.cleanupLoop(ctx)

	return rf, nil
}

// weekKey formats t as YYYY-Www
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends p to the current file, rotating first when the week changed or
// p would push the file past maxSize.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	week := weekKey(rf.now())
	full := rf.maxSize > 0 && rf.size+int64(len(p)) > rf.maxSize && rf.size > 0
	if week != rf.week || full {
		if err := rf.rotate(week, week == rf.week && full); err != nil {
			return 0, err
		}
	}
	if rf.file == nil {
		return 0, fmt.Errorf("no log file open in %s", rf.dir)
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// rotate opens the file for week; caller holds mu.
func (rf *RotatingFile) rotate(week string, forceNext bool) error {
	if rf.file != nil {
		if err := rf.file.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rf.file = nil
	}

	name := rf.pickFile(week, forceNext)
	path := filepath.Join(rf.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rf.file = file
	rf.week = week
	rf.size = 0
	if info, err := file.Stat(); err == nil {
		rf.size = info.Size()
	}
	return nil
}

// pickFile returns the base file for the week while it has room, otherwise the
// last numbered part with room, otherwise a new numbered part.
func (rf *RotatingFile) pickFile(week string, forceNext bool) string {
	base := fmt.Sprintf("%s%s.log", FilePrefix, week)
	highest, lastName, lastSize := rf.lastPart(week)

	if !forceNext {
		if highest == 0 {
			info, err := os.Stat(filepath.Join(rf.dir, base))
			if err != nil || rf.maxSize == 0 || info.Size() < rf.maxSize {
				return base
			}
		} else if rf.maxSize == 0 || lastSize < rf.maxSize {
			return lastName
		}
	}

	return fmt.Sprintf("%s%s_%02d.log", FilePrefix, week, highest+1)
}

func (rf *RotatingFile) lastPart(week string) (int, string, int64) {
	matches, _ := filepath.Glob(filepath.Join(rf.dir, fmt.Sprintf("%s%s_??.log", FilePrefix, week)))

	highest := 0
	var name string
	var size int64
	for _, match := range matches {
		m := numberedFile.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num <= highest {
			continue
		}
		highest = num
		name = filepath.Base(match)
		size = 0
		if info, err := os.Stat(match); err == nil {
			size = info.Size()
		}
	}
	return highest, name, size
}

func (rf *RotatingFile) cleanupLoop(ctx context.Context) {
	defer close(rf.stopped)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rf.Cleanup(); err != nil {
				slog.Warn("Failed to clean up old log files", "error", err)
			}
		}
	}
}

// Cleanup deletes log files last modified before the retention window and
// returns how many were removed.
func (rf *RotatingFile) Cleanup() (int, error) {
	if rf.retention <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rf.now().Add(-rf.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(rf.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Close stops the cleanup loop and closes the current file
func (rf *RotatingFile) Close() error {
	if rf.stop != nil {
		rf.stop()
		<-rf.stopped
	}

	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
