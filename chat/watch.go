package chat

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tailored-agentic-units/livetext/observability"
)

// WatchConfig reloads filename whenever it is written and applies the result
// to the conversation with Reconfigure. The parent directory is watched so
// editors that replace the file by rename are followed. Reload failures are
// reported through the observer and leave the current settings in place.
// WatchConfig blocks until ctx is done or the conversation is closed.
func (c *Conversation) WatchConfig(ctx context.Context, filename string) error {
	path, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.inbox.done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			c.reload(ctx, path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			observability.Emit(ctx, c.observer, EventReloadFailed, observability.LevelWarning, "chat.WatchConfig", map[string]any{
				"error": err.Error(),
			})
		}
	}
}

func (c *Conversation) reload(ctx context.Context, path string) {
	cfg, err := LoadConfig(path)
	if err == nil {
		err = c.Reconfigure(ctx, cfg)
	}
	if err != nil {
		observability.Emit(ctx, c.observer, EventReloadFailed, observability.LevelWarning, "chat.WatchConfig", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return
	}

	observability.Emit(ctx, c.observer, EventReload, observability.LevelInfo, "chat.WatchConfig", map[string]any{
		"path": path,
	})
}
