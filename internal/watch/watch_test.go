package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":[]}`), 0644))

	reloaded := make(chan string, 4)
	w, err := New(path, func(p string) error {
		reloaded <- p
		return nil
	})
	require.NoError(t, err)
	defer w.Close()
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to start, then write twice quickly.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"v":[1]}`), 0644))
	require.NoError(t, os.WriteFile(path, []byte(`{"v":[2]}`), 0644))

	select {
	case p := <-reloaded:
		assert.Equal(t, w.Path(), p)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":[]}`), 0644))

	var calls atomic.Int32
	w, err := New(path, func(string) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	defer w.Close()
	w.SetDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0644))
	time.Sleep(150 * time.Millisecond)

	assert.Zero(t, calls.Load())
}

func TestCloseStopsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.json")
	w, err := New(path, func(string) error { return nil })
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	require.NoError(t, w.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "part.json"), nil)
	assert.Error(t, err)
}
