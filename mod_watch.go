package molview

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchModule reloads molecule assets when their source files change on
// disk. The fsnotify goroutine only queues paths; the actual reload happens
// on the main loop so no GPU or ECS state is touched off-thread. Editors
// often fire several writes per save, so events are debounced.
type WatchModule struct{}

type watchState struct {
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	changed []string
}

const watchDebounce = 50 * time.Millisecond

func (mod WatchModule) Install(app *App, cmd *Commands) {
	log := app.Logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnf("file watching disabled: %v", err)
		return
	}

	state := &watchState{watcher: watcher}

	// Watch the directories of every molecule loaded so far. Files saved by
	// rename (the common editor pattern) still produce events on the parent
	// directory watch.
	dirs := map[string]bool{}
	for _, asset := range app.assetServer().molecules {
		dir := filepath.Dir(asset.sourcePath)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			log.Warnf("watch %s: %v", dir, err)
		}
	}

	debounce := make(map[string]time.Time)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				now := time.Now()
				state.mu.Lock()
				if last, seen := debounce[event.Name]; seen && now.Sub(last) < watchDebounce {
					state.mu.Unlock()
					continue
				}
				debounce[event.Name] = now
				state.changed = append(state.changed, event.Name)
				state.mu.Unlock()

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// fsnotify recovers on its own
			}
		}
	}()

	app.addResources(state)
	app.UseSystem(
		System(watchReloadSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// watchReloadSystem drains queued file events and reloads the matching
// molecule assets. Paths that do not map to a loaded molecule are ignored.
func watchReloadSystem(state *watchState, assets *AssetServer) {
	state.mu.Lock()
	changed := state.changed
	state.changed = nil
	state.mu.Unlock()

	for _, path := range changed {
		id, ok := assets.MoleculeBySource(path)
		if !ok {
			continue
		}
		if err := assets.ReloadMolecule(id); err != nil {
			assets.logger().Errorf("reload %s: %v", path, err)
			continue
		}
		assets.logger().Infof("reloaded %s", path)
	}
}
