package core

import (
	"fmt"
	"os"
	"time"

	"github.com/termfx/symdex/models"
)

// IsFileModified reports whether the file's mtime postdates the stored
// last-indexed timestamp. A file with no recorded timestamp is always
// considered modified.
func IsFileModified(path string, lastIndexed *time.Time) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to read file metadata for %s: %w", path, err)
	}
	if lastIndexed == nil {
		return true, nil
	}
	return info.ModTime().After(*lastIndexed), nil
}

// DetectChangedFiles filters stored file rows down to the paths that need
// re-indexing. Paths that no longer exist are skipped; deletion is handled
// separately through the store's cascade.
func DetectChangedFiles(files []models.File) ([]string, error) {
	var changed []string
	for _, file := range files {
		if _, err := os.Stat(file.Path); os.IsNotExist(err) {
			continue
		}
		modified, err := IsFileModified(file.Path, file.LastIndexed)
		if err != nil {
			return nil, err
		}
		if modified {
			changed = append(changed, file.Path)
		}
	}
	return changed, nil
}

// ReindexFiles captures fresh metadata for changed paths serially. Symbol
// refresh happens through PersistIndex, which deletes then re-inserts per
// file.
func (ix *Indexer) ReindexFiles(changed []string, progress ProgressFunc) []models.File {
	return ix.IndexFiles(changed, progress)
}

// ReindexFilesParallel is the pooled variant; the callback may be nil.
func (ix *Indexer) ReindexFilesParallel(changed []string, progress ProgressFunc) []models.File {
	return ix.IndexFilesParallel(changed, progress)
}

// HandleFileChange applies the discovery filter to a single changed path and
// returns its metadata, or nil when the file is filtered out.
func HandleFileChange(path string, config IndexerConfig) (*models.File, error) {
	ok, err := shouldIndexFile(path, &config)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return CreateFileMetadata(path)
}
