package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sha1n/mcp-prompt-server-go/internal/prompts"
)

// DefaultDebounce is the quiet period after the last change before reloading
const DefaultDebounce = 500 * time.Millisecond

// Reloader is what the watcher triggers on changes
type Reloader interface {
	Reload(ctx context.Context) (*prompts.Snapshot, error)
}

// Watcher reloads prompts when definition files in a directory change.
// Bursts of events are collapsed into a single reload.
type Watcher struct {
	dir      string
	reloader Reloader
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	wg sync.WaitGroup
}

// New creates a watcher for dir. It does not start watching until Start.
func New(dir string, reloader Reloader, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		dir:      dir,
		reloader: reloader,
		debounce: debounce,
		watcher:  fw,
	}, nil
}

// Start begins watching the directory
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}

	w.wg.Add(1)
	go w.loop(ctx)

	slog.Info("Watching prompts directory", "dir", w.dir, "debounce", w.debounce)
	return nil
}

// Close stops watching and waits for pending work to finish. No reload
// starts after Close returns.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("Prompt file event detected", "file", event.Name, "op", event.Op.String())
			w.schedule(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.reload(ctx) })
}

func (w *Watcher) reload(ctx context.Context) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	if ctx.Err() != nil {
		return
	}
	if _, err := w.reloader.Reload(ctx); err != nil {
		slog.Error("Failed to reload prompts after file change", "error", err)
	}
}

func relevant(event fsnotify.Event) bool {
	if !prompts.IsDefinitionFile(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
