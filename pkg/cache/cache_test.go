package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = %v, %v, want nil, false", data, hit)
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Errorf("Get(missing) = %v, %v, want miss", hit, err)
	}

	if err := c.Set(ctx, "snapshot:menu:1", []byte(`{"frame":1}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "snapshot:menu:1")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v, want hit", hit, err)
	}
	if string(data) != `{"frame":1}` {
		t.Errorf("Get() data = %s, want {\"frame\":1}", data)
	}

	if err := c.Delete(ctx, "snapshot:menu:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "snapshot:menu:1"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "snapshot:menu:1"); err != nil {
		t.Errorf("Delete of absent key = %v, want nil", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	fc := c.(*FileCache)

	path := fc.path("k")
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = %v, %v, want miss without error", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry was not removed")
	}
}

func TestFileCacheCancelled(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() = %v, want context.Canceled", err)
	}
	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() = %v, want context.Canceled", err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	fc := c.(*FileCache)

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "b", []byte("3"), 0)
	if got := fc.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if err := fc.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if fc.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"snapshot", k.SnapshotKey("menu", 3), "snapshot:menu:3"},
		{"latest", k.LatestKey("menu"), "snapshot:menu:latest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}

	r1 := k.RunKey("abc", RunKeyOpts{Frames: 1})
	r2 := k.RunKey("abc", RunKeyOpts{Frames: 2})
	if r1 == r2 {
		t.Error("different RunKeyOpts should produce different keys")
	}
	if r1 != k.RunKey("abc", RunKeyOpts{Frames: 1}) {
		t.Error("RunKey should be deterministic")
	}
	if !strings.HasPrefix(r1, "run:") {
		t.Errorf("RunKey() = %q, want run: prefix", r1)
	}
}

func TestScopedKeyer(t *testing.T) {
	k := NewScopedKeyer(nil, "staging:")

	if got := k.LatestKey("menu"); got != "staging:snapshot:menu:latest" {
		t.Errorf("LatestKey() = %q", got)
	}
	if got := k.SnapshotKey("menu", 1); got != "staging:snapshot:menu:1" {
		t.Errorf("SnapshotKey() = %q", got)
	}
	base := NewDefaultKeyer().RunKey("h", RunKeyOpts{})
	if got := k.RunKey("h", RunKeyOpts{}); got != "staging:"+base {
		t.Errorf("RunKey() = %q, want %q", got, "staging:"+base)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := Backoff
	Backoff = time.Millisecond
	defer func() { Backoff = old }()

	ctx := context.Background()
	fatal := errors.New("fatal")

	tests := []struct {
		name      string
		fails     int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, nil, 1, false},
		{"recovers", 2, Retryable(ErrNetwork), 3, false},
		{"exhausted", 5, Retryable(ErrNetwork), 3, true},
		{"not retryable", 5, fatal, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.fails {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("RetryWithBackoff() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNetworkErr(t *testing.T) {
	if networkErr(nil) != nil {
		t.Error("networkErr(nil) should be nil")
	}
	err := networkErr(errors.New("connection refused"))
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("networkErr() = %v, want retryable ErrNetwork", err)
	}
	if IsRetryable(networkErr(context.Canceled)) {
		t.Error("context cancellation should not be retried")
	}
}
