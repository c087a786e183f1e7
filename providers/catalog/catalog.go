package catalog

import (
	"sort"
	"strings"
	"sync"
)

// LanguageInfo captures metadata about a registered language provider.
type LanguageInfo struct {
	ID         string
	Extensions []string
}

var (
	mu     sync.RWMutex
	byLang = make(map[string]LanguageInfo)
	byExt  = make(map[string]LanguageInfo)
)

// Register stores language metadata for extension lookups. Registering the
// same language again overwrites prior data so the catalog tracks the latest
// provider definition.
func Register(info LanguageInfo) {
	if info.ID == "" {
		return
	}

	info.Extensions = normalizeExtensions(info.Extensions)

	mu.Lock()
	defer mu.Unlock()

	byLang[strings.ToLower(info.ID)] = info
	for _, ext := range info.Extensions {
		byExt[ext] = info
	}
}

// LookupByExtension returns the language info registered for a file
// extension (with or without the leading dot).
func LookupByExtension(ext string) (LanguageInfo, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	mu.RLock()
	defer mu.RUnlock()
	info, ok := byExt[ext]
	return info, ok
}

// Languages returns all registered language infos sorted by language ID.
func Languages() []LanguageInfo {
	mu.RLock()
	defer mu.RUnlock()

	infos := make([]LanguageInfo, 0, len(byLang))
	for _, info := range byLang {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func normalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
