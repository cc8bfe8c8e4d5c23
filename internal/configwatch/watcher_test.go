package configwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/makomweb/request-batcher/internal/cliconfig"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = "info"`), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	changes := make(chan cliconfig.FileConfig, 4)
	w := New(path, func(fc cliconfig.FileConfig) { changes <- fc }, nil, Config{
		DebounceDelay: 10 * time.Millisecond,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`log_level = "debug"`), 0644); err != nil {
		t.Fatalf("Failed to update config file: %v", err)
	}

	// A truncating write can surface as an empty file first.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case fc := <-changes:
			if fc.LogLevel == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("no reload after write")
		}
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(path, []byte(`sink = "stdout"`), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	changes := make(chan cliconfig.FileConfig, 4)
	w := New(path, func(fc cliconfig.FileConfig) { changes <- fc }, nil, Config{
		DebounceDelay: 10 * time.Millisecond,
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(tmpDir, "other.toml"), []byte(`x = 1`), 0644); err != nil {
		t.Fatalf("Failed to write other file: %v", err)
	}

	select {
	case fc := <-changes:
		t.Errorf("unexpected reload: %+v", fc)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_InvalidFileKeepsWatching(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(path, []byte(`sink = "stdout"`), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	changes := make(chan cliconfig.FileConfig, 4)
	w := New(path, func(fc cliconfig.FileConfig) { changes <- fc }, nil, Config{
		DebounceDelay: 10 * time.Millisecond,
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`this is not toml`), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`sink = "redis"`), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case fc := <-changes:
			if fc.Sink == "redis" {
				return
			}
		case <-deadline:
			t.Fatal("no reload after fixing the file")
		}
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "config.toml"), nil, nil, DefaultConfig())
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("Start() expected error for missing directory")
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w := New("config.toml", nil, nil, DefaultConfig())
	w.Stop()
}
