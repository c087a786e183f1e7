package core

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/termfx/symdex/db"
	"github.com/termfx/symdex/models"
	"github.com/termfx/symdex/providers"

	// Register the built-in language providers.
	_ "github.com/termfx/symdex/providers/javascript"
	_ "github.com/termfx/symdex/providers/python"
	_ "github.com/termfx/symdex/providers/rust"
	_ "github.com/termfx/symdex/providers/typescript"
)

// ProgressFunc reports indexing progress as (completed, total). The parallel
// indexer invokes it from multiple goroutines without serialization, so
// implementations must be safe for concurrent calls.
type ProgressFunc func(done, total int)

// Indexer orchestrates discovery, per-file metadata capture, extraction and
// persistence against a single store.
type Indexer struct {
	store    *db.Store
	registry *providers.Registry
	workers  int
	logger   *log.Logger
}

// NewIndexer creates an indexer over the store using the default provider
// registry.
func NewIndexer(store *db.Store) *Indexer {
	return &Indexer{
		store:    store,
		registry: providers.Default(),
		workers:  runtime.NumCPU(),
		logger:   log.Default(),
	}
}

// SetWorkers bounds the parallel indexing pool. Values below one fall back
// to the CPU count.
func (ix *Indexer) SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	ix.workers = n
}

// CreateFileMetadata stats a path and builds its file row. Unsupported
// languages are an error; callers filter through discovery first.
func CreateFileMetadata(path string) (*models.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file metadata for %s: %w", path, err)
	}
	language := DetectLanguage(path)
	if language == LangUnsupported {
		return nil, fmt.Errorf("unsupported file language: %s", path)
	}
	return &models.File{
		Path:     path,
		Language: string(language),
		Size:     info.Size(),
	}, nil
}

// IndexFiles captures metadata for each path serially. The progress callback
// fires exactly once per input, in input order, and results keep input
// order. A failing file is logged and skipped; the index continues.
func (ix *Indexer) IndexFiles(paths []string, progress ProgressFunc) []models.File {
	total := len(paths)
	files := make([]models.File, 0, total)

	for i, path := range paths {
		if progress != nil {
			progress(i+1, total)
		}
		meta, err := CreateFileMetadata(path)
		if err != nil {
			ix.logger.Warn("failed to index file", "path", path, "err", err)
			continue
		}
		files = append(files, *meta)
	}
	return files
}

// IndexFilesParallel captures metadata across a bounded worker pool. The
// progress callback sees a monotone completion count but no particular file
// order; result order is unspecified.
func (ix *Indexer) IndexFilesParallel(paths []string, progress ProgressFunc) []models.File {
	total := len(paths)
	var (
		mu      sync.Mutex
		files   = make([]models.File, 0, total)
		counter atomic.Int64
	)

	var g errgroup.Group
	g.SetLimit(ix.workers)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			current := int(counter.Add(1))
			if progress != nil {
				progress(current, total)
			}

			meta, err := CreateFileMetadata(path)
			if err != nil {
				ix.logger.Warn("failed to index file", "path", path, "err", err)
				return nil
			}
			mu.Lock()
			files = append(files, *meta)
			mu.Unlock()
			return nil
		})
	}
	// Workers swallow per-file failures, so Wait only synchronizes.
	_ = g.Wait()
	return files
}

// PersistIndex writes the captured files and their refreshed symbols to the
// store. Per file the store sees upsert, symbol delete, then inserts, in
// that order. Extraction failures leave the file row in place.
func (ix *Indexer) PersistIndex(files []models.File) error {
	// Serial persistence shares one provider instance per language.
	adapters := make(map[string]providers.Provider)

	for i := range files {
		file := &files[i]
		fileID, err := ix.store.UpsertFile(file)
		if err != nil {
			return err
		}
		if err := ix.store.DeleteFileSymbols(fileID); err != nil {
			return err
		}

		provider, ok := adapters[file.Language]
		if !ok {
			provider, ok = ix.registry.New(file.Language)
			if !ok {
				ix.logger.Warn("no provider for language", "language", file.Language)
				continue
			}
			adapters[file.Language] = provider
		}

		source, err := os.ReadFile(file.Path)
		if err != nil {
			ix.logger.Warn("failed to read source", "path", file.Path, "err", err)
			continue
		}

		tree, err := provider.Parse(source)
		if err != nil {
			// The parser runtime could not construct a tree at all; the file
			// row stays, symbols stay empty.
			ix.logger.Warn("parse failed", "path", file.Path, "err", err)
			continue
		}

		symbols := provider.Extract(tree, source)
		for j := range symbols {
			symbols[j].FileID = fileID
			if _, err := ix.store.InsertSymbol(&symbols[j]); err != nil {
				tree.Close()
				return err
			}
		}
		if err := ix.store.ReplaceFileDependencies(fileID, providers.DependenciesFromSymbols(symbols)); err != nil {
			tree.Close()
			return err
		}

		parseErrors := provider.ParseErrorCount(tree)
		tree.Close()
		if parseErrors != file.ParseErrors {
			file.ParseErrors = parseErrors
			if err := ix.store.SetFileParseErrors(fileID, parseErrors); err != nil {
				return err
			}
		}
	}
	return nil
}

// IndexProject is the end-to-end pipeline: discover, capture metadata
// (parallel when asked), persist.
func (ix *Indexer) IndexProject(config IndexerConfig, parallel bool, progress ProgressFunc) ([]models.File, error) {
	paths, err := DiscoverFiles(config)
	if err != nil {
		return nil, err
	}

	var files []models.File
	if parallel {
		files = ix.IndexFilesParallel(paths, progress)
	} else {
		files = ix.IndexFiles(paths, progress)
	}

	if err := ix.PersistIndex(files); err != nil {
		return nil, err
	}
	return files, nil
}
