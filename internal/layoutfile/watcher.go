package layoutfile

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// LayoutChangedHandler is called when a watched layout file changes on disk.
type LayoutChangedHandler func(pageID string, f *File)

// Watcher reloads layout files when an external editor saves them.
// Edit the exported JSON by hand, save, and the open page picks it up.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange LayoutChangedHandler
	mu       sync.RWMutex
	watching map[string]string // filePath -> pageID
}

// NewWatcher creates a layout file watcher.
func NewWatcher(onChange LayoutChangedHandler) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		onChange: onChange,
		watching: make(map[string]string),
	}

	go w.watchLoop()

	return w, nil
}

// WatchFile starts watching a layout file for a page.
func (w *Watcher) WatchFile(pageID, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.watching[absPath] = pageID
	w.mu.Unlock()

	// Watch the directory (fsnotify watches dirs for file events)
	dir := filepath.Dir(absPath)
	return w.watcher.Add(dir)
}

// StopWatching stops watching the layout file for a page.
func (w *Watcher) StopWatching(pageID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, id := range w.watching {
		if id == pageID {
			delete(w.watching, path)
			break
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) {
				absPath, _ := filepath.Abs(event.Name)
				w.mu.RLock()
				pageID, watched := w.watching[absPath]
				w.mu.RUnlock()

				if watched {
					f, err := Load(absPath)
					if err != nil {
						// Half-saved or malformed files are skipped, not fatal.
						log.Printf("layoutfile: reload %s: %v", absPath, err)
						continue
					}
					if w.onChange != nil {
						w.onChange(pageID, f)
					}
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("layoutfile: watcher error: %v", err)
		}
	}
}
