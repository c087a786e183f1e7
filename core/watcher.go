package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// FileChangeKind classifies a filesystem event.
type FileChangeKind int

const (
	ChangeCreate FileChangeKind = iota
	ChangeModify
	ChangeDelete
	ChangeRename
	ChangeOther
)

func (k FileChangeKind) String() string {
	switch k {
	case ChangeCreate:
		return "create"
	case ChangeModify:
		return "modify"
	case ChangeDelete:
		return "delete"
	case ChangeRename:
		return "rename"
	default:
		return "other"
	}
}

// FileChangeEvent is a simplified filesystem event.
type FileChangeEvent struct {
	Kind  FileChangeKind
	Paths []string
}

// IsRelevantFile reports whether any path carries a supported source
// extension.
func (e FileChangeEvent) IsRelevantFile() bool {
	for _, path := range e.Paths {
		if DetectLanguage(path) != LangUnsupported {
			return true
		}
	}
	return false
}

// FileWatcher streams change events for a directory tree. fsnotify watches
// are per-directory, so Watch registers every non-excluded directory under
// the root and newly created directories are registered as they appear.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	events    chan FileChangeEvent
	done      chan struct{}
	closeOnce sync.Once
	logger    *log.Logger
}

// NewFileWatcher creates an idle watcher; call Watch to start receiving
// events.
func NewFileWatcher() (*FileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &FileWatcher{
		watcher: fsWatcher,
		events:  make(chan FileChangeEvent, 64),
		done:    make(chan struct{}),
		logger:  log.Default(),
	}
	go w.pump()
	return w, nil
}

// Watch registers the directory tree rooted at path.
func (w *FileWatcher) Watch(path string) error {
	err := filepath.WalkDir(path, func(dir string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if isExcludedDir(entry.Name(), DefaultExcludeDirs) && dir != path {
			return filepath.SkipDir
		}
		return w.watcher.Add(dir)
	})
	if err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", path, err)
	}
	return nil
}

// NextEvent blocks until the next change event; nil once the stream has
// ended after Close.
func (w *FileWatcher) NextEvent() *FileChangeEvent {
	event, ok := <-w.events
	if !ok {
		return nil
	}
	return &event
}

// TryNextEvent returns the next queued event without blocking, or nil when
// none is pending.
func (w *FileWatcher) TryNextEvent() *FileChangeEvent {
	select {
	case event, ok := <-w.events:
		if !ok {
			return nil
		}
		return &event
	default:
		return nil
	}
}

// Close stops the watcher and ends the event stream. Events already queued
// are still returned by NextEvent before it reports nil. Safe to call more
// than once.
func (w *FileWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *FileWatcher) pump() {
	defer close(w.events)
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Register directories that appear under a watched root so the
			// recursive contract holds.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !isExcludedDir(filepath.Base(event.Name), DefaultExcludeDirs) {
						if err := w.watcher.Add(event.Name); err != nil {
							w.logger.Error("failed to watch new directory", "path", event.Name, "err", err)
						}
					}
					continue
				}
			}

			out := FileChangeEvent{Kind: kindFromOp(event.Op), Paths: []string{event.Name}}
			select {
			case w.events <- out:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

func kindFromOp(op fsnotify.Op) FileChangeKind {
	switch {
	case op&fsnotify.Create != 0:
		return ChangeCreate
	case op&fsnotify.Write != 0:
		return ChangeModify
	case op&fsnotify.Remove != 0:
		return ChangeDelete
	case op&fsnotify.Rename != 0:
		return ChangeRename
	default:
		return ChangeOther
	}
}
