package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recorder) handle(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	return r.err
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		dir       bool
		create    bool
		operation fsnotify.Op
		want      bool
	}{
		{name: "create jsonl", file: "notices.jsonl", create: true, operation: fsnotify.Create, want: true},
		{name: "write yaml", file: "courses.yaml", create: true, operation: fsnotify.Write, want: true},
		{name: "remove", file: "notices.jsonl", operation: fsnotify.Remove, want: false},
		{name: "rename", file: "notices.jsonl", operation: fsnotify.Rename, want: false},
		{name: "chmod", file: "notices.jsonl", create: true, operation: fsnotify.Chmod, want: false},
		{name: "unsupported extension", file: "readme.txt", create: true, operation: fsnotify.Create, want: false},
		{name: "hidden file", file: ".notices.jsonl", create: true, operation: fsnotify.Create, want: false},
		{name: "directory", file: "batch.json", dir: true, operation: fsnotify.Create, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			switch {
			case tt.dir:
				require.NoError(t, os.Mkdir(path, 0o755))
			case tt.create:
				require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
			}

			got, ok := handleFsEvent(fsnotify.Event{Name: path, Op: tt.operation})

			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, path, got)
			}
		})
	}
}

func TestWatcher_Scan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.jsonl", ".hidden.jsonl", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	rec := &recorder{}
	handled, err := NewWatcher(dir, rec.handle).Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, handled)
	assert.Equal(t, []string{"a.jsonl", "b.yaml"}, rec.seen())
}

func TestWatcher_Scan_HandlerErrorsAreCounted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte("x"), 0o600))

	rec := &recorder{err: errors.New("bad file")}
	handled, err := NewWatcher(dir, rec.handle).Scan(context.Background())

	require.NoError(t, err)
	assert.Zero(t, handled)
	assert.Len(t, rec.seen(), 1)
}

func TestWatcher_Scan_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), (&recorder{}).handle).Scan(context.Background())

	assert.Error(t, err)
}

func TestWatcher_Watch(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher(dir, rec.handle)
	w.SetSettle(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "new.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"a"}`+"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600))

	assert.Eventually(t, func() bool { return len(rec.seen()) == 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"new.jsonl"}, rec.seen(), "several writes settle into one handling")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_Settled(t *testing.T) {
	w := NewWatcher(t.TempDir(), (&recorder{}).handle)
	w.SetSettle(time.Second)
	now := time.Now()

	w.touch("/d/b.jsonl", now.Add(-2*time.Second))
	w.touch("/d/a.jsonl", now.Add(-time.Second))
	w.touch("/d/c.jsonl", now)

	assert.Equal(t, []string{"/d/a.jsonl", "/d/b.jsonl"}, w.settled(now))
	assert.Empty(t, w.settled(now))
	assert.Equal(t, []string{"/d/c.jsonl"}, w.settled(now.Add(time.Second)))
}
