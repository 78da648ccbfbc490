package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sha1n/mcp-prompt-server-go/internal/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) Reload(ctx context.Context) (*prompts.Snapshot, error) {
	c.calls.Add(1)
	return nil, nil
}

func TestWatcher_ReloadsOnNewDefinition(t *testing.T) {
	dir := t.TempDir()
	registry := prompts.NewRegistry(prompts.NewDirLoader(dir))
	_, err := registry.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, registry.Current().Len())

	w, err := New(dir, registry, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	content := "name: greet\nmessages:\n  - role: user\n    content:\n      text: Hello {{name}}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.yaml"), []byte(content), 0644))

	require.Eventually(t, func() bool {
		_, ok := registry.FindByName("greet")
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "greet.yaml")))

	require.Eventually(t, func() bool {
		return registry.Current().Len() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{}

	w, err := New(dir, reloader, 200*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "p.json"), []byte(`{"name":"p"}`), 0644))
	}

	require.Eventually(t, func() bool {
		return reloader.calls.Load() >= 1
	}, 5*time.Second, 20*time.Millisecond)

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), reloader.calls.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{}

	w, err := New(dir, reloader, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), reloader.calls.Load())
}

type blockingReloader struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingReloader) Reload(ctx context.Context) (*prompts.Snapshot, error) {
	if b.calls.Add(1) == 1 {
		close(b.entered)
	}
	<-b.release
	return nil, nil
}

func TestWatcher_CloseCancelsPendingReload(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{}

	w, err := New(dir, reloader, 300*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.json"), []byte(`{"name":"p"}`), 0644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Close())

	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(0), reloader.calls.Load())
}

func TestWatcher_CloseWaitsForRunningReload(t *testing.T) {
	dir := t.TempDir()
	reloader := &blockingReloader{entered: make(chan struct{}), release: make(chan struct{})}

	w, err := New(dir, reloader, 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.json"), []byte(`{"name":"p"}`), 0644))

	select {
	case <-reloader.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not triggered")
	}

	closed := make(chan error, 1)
	go func() { closed <- w.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned while a reload was running")
	case <-time.After(100 * time.Millisecond):
	}

	close(reloader.release)
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the reload finished")
	}
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), &countingReloader{}, 0)
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Start(context.Background()))
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "a.yaml", Op: fsnotify.Create}))
	assert.True(t, relevant(fsnotify.Event{Name: "a.json", Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Name: "a.yml", Op: fsnotify.Remove}))
	assert.False(t, relevant(fsnotify.Event{Name: "a.yaml", Op: fsnotify.Chmod}))
	assert.False(t, relevant(fsnotify.Event{Name: "a.md", Op: fsnotify.Write}))
}
