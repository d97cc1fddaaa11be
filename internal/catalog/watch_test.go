package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ReportsNoteChanges(t *testing.T) {
	root := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	events := map[string]bool{}
	seen := func(e string) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			return events[e]
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, root, DefaultIndexName, logger, func(kind, rel string) {
			mu.Lock()
			events[kind+":"+rel] = true
			mu.Unlock()
		})
	}()

	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(root, "学习笔记类")
	_ = os.Mkdir(sub, 0o755)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(sub, "Git.md"), []byte("# Git"), 0o644)
	_ = os.WriteFile(filepath.Join(sub, DefaultIndexName), []byte("index"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, seen("created:学习笔记类/Git.md"), "create in new dir not reported")

	_ = os.Remove(filepath.Join(sub, "Git.md"))
	eventually(t, 5*time.Second, 50*time.Millisecond, seen("deleted:学习笔记类/Git.md"), "delete not reported")

	mu.Lock()
	for e := range events {
		if filepath.Base(e) == DefaultIndexName || filepath.Ext(e) == ".txt" {
			t.Errorf("unexpected event %s", e)
		}
	}
	mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop")
	}
}

func TestWatch_WaitsForMissingRoot(t *testing.T) {
	prev := rootPollInterval
	rootPollInterval = 20 * time.Millisecond
	t.Cleanup(func() { rootPollInterval = prev })

	root := filepath.Join(t.TempDir(), "AI笔记")
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, root, DefaultIndexName, logger, func(kind, rel string) {
			mu.Lock()
			got = append(got, kind+":"+rel)
			mu.Unlock()
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("watch created the notes root: %v", err)
	}

	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(root, "a.md"), []byte("# a"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range got {
			if e == "created:a.md" {
				return true
			}
		}
		return false
	}, "create after the root appeared not reported")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop")
	}
}

func TestWatch_StopsWhileWaiting(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Watch(ctx, filepath.Join(t.TempDir(), "missing"), DefaultIndexName, logger, func(string, string) {}); err != nil {
		t.Errorf("Watch = %v", err)
	}
}
