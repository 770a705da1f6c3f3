package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"table create", fsnotify.Event{Name: "/db/000012.ldb", Op: fsnotify.Create}, true},
		{"table write", fsnotify.Event{Name: "/db/000012.ldb", Op: fsnotify.Write}, true},
		{"table remove", fsnotify.Event{Name: "/db/000012.ldb", Op: fsnotify.Remove}, true},
		{"table chmod", fsnotify.Event{Name: "/db/000012.ldb", Op: fsnotify.Chmod}, false},
		{"write-ahead log", fsnotify.Event{Name: "/db/000013.log", Op: fsnotify.Write}, false},
		{"manifest", fsnotify.Event{Name: "/db/MANIFEST-000001", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(tt.ev); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 100*time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	fired := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ctx context.Context, events int) {
			calls.Add(1)
			fired <- struct{}{}
		})
	}()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"000001.ldb", "000002.ldb", "000003.ldb"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange was not called")
	}

	// No further events: the burst must have been reported once.
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("onChange calls = %d, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), time.Second, zerolog.Nop()); err == nil {
		t.Fatal("New() on a missing directory should fail")
	}
}
