package config

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before its change is
// reported. Editor save bursts collapse into one event per file.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to profile, level and script files so a running
// process can rebuild its mesh. Events carry the changed file's path.
type Watcher struct {
	watcher  *fsnotify.Watcher
	Events   chan string
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
	debounce time.Duration
}

// NewWatcher watches the given files or directories.
func NewWatcher(paths ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		if err := w.Add(p); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher:  w,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
		debounce: DefaultDebounce,
	}
	go watcher.run()
	return watcher, nil
}

// Add starts watching another file or directory.
func (w *Watcher) Add(path string) error {
	return w.watcher.Add(path)
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

type settle struct {
	name string
	gen  int
}

type pendingChange struct {
	timer *time.Timer
	gen   int
}

// run reports a file once it has been quiet for the debounce window, so the
// last write of a burst is the one a reload sees.
func (w *Watcher) run() {
	defer close(w.done)
	pending := make(map[string]*pendingChange)
	settled := make(chan settle)
	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsWatchedFile(event.Name) {
				continue
			}
			p, ok := pending[event.Name]
			if !ok {
				p = &pendingChange{}
				pending[event.Name] = p
			} else {
				p.timer.Stop()
			}
			p.gen++
			s := settle{name: event.Name, gen: p.gen}
			p.timer = time.AfterFunc(w.debounce, func() {
				select {
				case settled <- s:
				case <-w.closeCh:
				}
			})
		case s := <-settled:
			p, ok := pending[s.name]
			if !ok || p.gen != s.gen {
				continue
			}
			delete(pending, s.name)
			select {
			case w.Events <- s.name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// IsWatchedFile reports whether a change to path can affect navigation.
func IsWatchedFile(path string) bool {
	return isSpecFile(path) || isLevelFile(path) || isScriptFile(path)
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isLevelFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tengo"
}
