package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/starford/notefiler/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteFileAndRead(t *testing.T) {
	s := tempRoot(t)
	ctx := context.Background()
	content := []byte("# 你好\nWorld\n")
	if err := s.WriteFile(ctx, "", "note.md", content); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := s.ReadFile(ctx, "", "note.md")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
	raw, err := s.Read(ctx, "note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(raw) != string(content) {
		t.Errorf("Read mismatch: got %q", raw)
	}
}

func TestReadFileMissing(t *testing.T) {
	s := tempRoot(t)
	got, err := s.ReadFile(context.Background(), "", "absent.md")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil content, got %q", got)
	}
	if _, err := s.Read(context.Background(), "absent.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Read err = %v, want ErrNotFound", err)
	}
}

func TestEnsureDirChain(t *testing.T) {
	s := tempRoot(t)
	ctx := context.Background()

	top, err := s.EnsureDir(ctx, "", "AI笔记")
	if err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	sub, err := s.EnsureDir(ctx, top, "学习笔记类")
	if err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if sub != "AI笔记/学习笔记类" {
		t.Errorf("path = %q", sub)
	}
	// Second call is a no-op.
	again, err := s.EnsureDir(ctx, top, "学习笔记类")
	if err != nil || again != sub {
		t.Errorf("EnsureDir again = %q, %v", again, err)
	}
	info, err := os.Stat(filepath.Join(s.Root(), "AI笔记", "学习笔记类"))
	if err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	s := tempRoot(t)
	ctx := context.Background()
	ok, err := s.FileExists(ctx, "", "a.md")
	if err != nil || ok {
		t.Fatalf("FileExists before write = %v, %v", ok, err)
	}
	_ = s.WriteFile(ctx, "", "a.md", []byte("a"))
	ok, err = s.FileExists(ctx, "", "a.md")
	if err != nil || !ok {
		t.Errorf("FileExists after write = %v, %v", ok, err)
	}
	_, _ = s.EnsureDir(ctx, "", "dir.md")
	ok, _ = s.FileExists(ctx, "", "dir.md")
	if ok {
		t.Error("directory reported as file")
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	ctx := context.Background()
	_ = s.WriteFile(ctx, "", "a.md", []byte("a"))
	sub, _ := s.EnsureDir(ctx, "", "sub")
	_ = s.WriteFile(ctx, sub, "b.md", []byte("b"))
	_ = s.WriteFile(ctx, "", "readme.txt", []byte("not md"))

	items, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.Checksum == "" {
			t.Errorf("missing checksum for %s", it.Path)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)
	ctx := context.Background()

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(ctx, p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
	}
	for _, name := range []string{"..", ".", "a/b.md", `a\b.md`, ""} {
		if err := s.WriteFile(ctx, "", name, []byte("x")); err == nil {
			t.Errorf("expected error for name %q", name)
		}
		if _, err := s.EnsureDir(ctx, "", name); err == nil {
			t.Errorf("expected EnsureDir error for name %q", name)
		}
	}
	if err := s.WriteFile(ctx, "../..", "x.md", []byte("x")); err == nil {
		t.Error("expected error for escaping dir")
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	ctx := context.Background()
	_ = s.WriteFile(ctx, "", "atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.WriteFile(ctx, "", "atomic.md", updated); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, _ := s.ReadFile(ctx, "", "atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".notefiler-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestWriteDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	s := tempRoot(t)
	ctx := context.Background()
	locked, _ := s.EnsureDir(ctx, "", "locked")
	abs := filepath.Join(s.Root(), "locked")
	if err := os.Chmod(abs, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(abs, 0o755) })

	err := s.WriteFile(ctx, locked, "x.md", []byte("x"))
	if !errors.Is(err, apperr.ErrWriteDenied) {
		t.Errorf("err = %v, want ErrWriteDenied", err)
	}
}

func TestAvailable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "root")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := s.Available(context.Background()); err != nil {
		t.Fatalf("Available: %v", err)
	}
	_ = os.RemoveAll(dir)
	if err := s.Available(context.Background()); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Errorf("err = %v, want ErrStorageUnavailable", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s := tempRoot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.WriteFile(ctx, "", "a.md", []byte("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Errorf("err = %v, want ErrStorageUnavailable", err)
	}
}

func TestNewFS_Empty(t *testing.T) {
	if _, err := NewFS(" "); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Errorf("err = %v, want ErrStorageUnavailable", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "notefiler-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
