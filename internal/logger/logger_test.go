package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("filename want %s got %s", defaultLogFilename, filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultLogDirName {
		t.Fatalf("dir want %s got %s", defaultLogDirName, filepath.Dir(got))
	}
	// 目录与文件应已就绪
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("expected log file created: %v", err)
	}
}

func TestNewReleaseWritesJSONFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log"})
	log.Info("release-log-entry")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-entry") {
		t.Fatalf("log file missing entry, got=%s", content)
	}
	if !strings.Contains(string(content), `"message"`) {
		t.Fatalf("release log should be JSON, got=%s", content)
	}
}

func TestNewDebugSkipsFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-entry")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestPositiveOr(t *testing.T) {
	if got := positiveOr(0, defaultLogMaxSizeMB); got != defaultLogMaxSizeMB {
		t.Fatalf("zero should fall back, got %d", got)
	}
	if got := positiveOr(-5, defaultLogMaxBackups); got != defaultLogMaxBackups {
		t.Fatalf("negative should fall back, got %d", got)
	}
	if got := positiveOr(42, defaultLogMaxSizeMB); got != 42 {
		t.Fatalf("positive should win, got %d", got)
	}
}
