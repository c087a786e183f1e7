package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize caps per-file reads at 10 MiB.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultExcludeDirs is the directory-name exclusion set applied when a
// config does not supply its own.
var DefaultExcludeDirs = []string{
	".git", "node_modules", "target", ".venv", "venv",
	"__pycache__", "dist", "build", ".next",
}

// IndexerConfig is the per-invocation configuration for discovery and
// indexing. Zero values fall back to the defaults below.
type IndexerConfig struct {
	// RootDir is the directory the walk starts from.
	RootDir string

	// Extensions is an optional allow-list (without dots); empty means every
	// supported language.
	Extensions []string

	// ExcludeDirs skips a directory subtree when its basename matches.
	ExcludeDirs []string

	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64
}

func (c IndexerConfig) String() string {
	return fmt.Sprintf("IndexerConfig(root_dir=%q, extensions=%v, exclude_dirs=%v, max_file_size=%d)",
		c.RootDir, c.Extensions, c.excludeDirs(), c.maxFileSize())
}

// ToMap returns the host-facing dictionary form of the config, with the
// defaults resolved.
func (c IndexerConfig) ToMap() map[string]string {
	return map[string]string{
		"root_dir":      c.RootDir,
		"extensions":    strings.Join(c.Extensions, ","),
		"exclude_dirs":  strings.Join(c.excludeDirs(), ","),
		"max_file_size": fmt.Sprintf("%d", c.maxFileSize()),
	}
}

// DefaultConfig returns the standard configuration rooted at dir.
func DefaultConfig(dir string) IndexerConfig {
	return IndexerConfig{
		RootDir:     dir,
		ExcludeDirs: append([]string(nil), DefaultExcludeDirs...),
		MaxFileSize: DefaultMaxFileSize,
	}
}

func (c IndexerConfig) excludeDirs() []string {
	if c.ExcludeDirs == nil {
		return DefaultExcludeDirs
	}
	return c.ExcludeDirs
}

func (c IndexerConfig) maxFileSize() int64 {
	if c.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return c.MaxFileSize
}

// DiscoverFiles walks the config root and returns the deduplicated list of
// indexable paths in discovery order.
func DiscoverFiles(config IndexerConfig) ([]string, error) {
	root := config.RootDir
	if root == "" {
		root = "."
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	var files []string
	seen := make(map[string]struct{})
	if err := discoverDir(root, &config, seen, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func discoverDir(dir string, config *IndexerConfig, seen map[string]struct{}, files *[]string) error {
	if isExcludedDir(filepath.Base(dir), config.excludeDirs()) {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Symlinks are not followed; cycle tracking is not worth the stat
		// traffic for an index that re-runs cheaply.
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if err := discoverDir(path, config, seen, files); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		ok, err := shouldIndexFile(path, config)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		*files = append(*files, path)
	}
	return nil
}

// shouldIndexFile applies the size cap, language support, and the optional
// extension allow-list.
func shouldIndexFile(path string, config *IndexerConfig) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > config.maxFileSize() {
		return false, nil
	}
	if DetectLanguage(path) == LangUnsupported {
		return false, nil
	}

	if len(config.Extensions) > 0 {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext == "" {
			return false, nil
		}
		matched := false
		for _, allowed := range config.Extensions {
			if strings.TrimPrefix(allowed, ".") == ext {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// isExcludedDir matches a directory basename against the exclusion set.
// Entries are plain names in practice but glob patterns work too.
func isExcludedDir(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == name {
			return true
		}
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}
