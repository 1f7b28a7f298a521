package guestburn

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stress-labs/guestburn/internal/cliconfig"
	"github.com/stress-labs/guestburn/internal/ports"
)

// configWatcher monitors a TOML config file via fsnotify and feeds parsed
// updates to the session. Reloads are debounced because editors fire
// several events per save.
type configWatcher struct {
	path   string
	logger ports.Logger
	apply  func(cliconfig.FileConfig)

	mu       sync.Mutex
	debounce *time.Timer
}

func newConfigWatcher(path string, logger ports.Logger, apply func(cliconfig.FileConfig)) *configWatcher {
	return &configWatcher{path: path, logger: logger, apply: apply}
}

// Run watches the config file's directory until ctx is canceled. Watching
// the directory rather than the file survives rename-based saves.
func (w *configWatcher) Run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("config watcher: failed to create watcher", ports.Err(err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		w.logger.Warn("config watcher: failed to watch directory",
			ports.String("dir", dir), ports.Err(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher: error", ports.Err(err))
		}
	}
}

func (w *configWatcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(delay, w.reload)
}

func (w *configWatcher) reload() {
	fc, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config watcher: reload failed",
			ports.String("path", w.path), ports.Err(err))
		return
	}
	w.logger.Info("config watcher: applying updated config",
		ports.String("path", w.path))
	w.apply(fc)
}
