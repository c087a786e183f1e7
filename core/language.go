package core

import "path/filepath"

// Language is a canonical language tag produced by detection.
type Language string

const (
	LangPython      Language = "python"
	LangTypeScript  Language = "typescript"
	LangJavaScript  Language = "javascript"
	LangRust        Language = "rust"
	LangUnsupported Language = "unsupported"
)

// DetectLanguage maps a path's final extension segment to its canonical
// language tag. The match is case-sensitive and performs no I/O.
func DetectLanguage(path string) Language {
	switch filepath.Ext(path) {
	case ".py", ".pyi":
		return LangPython
	case ".ts", ".tsx":
		return LangTypeScript
	case ".js", ".jsx":
		return LangJavaScript
	case ".rs":
		return LangRust
	default:
		return LangUnsupported
	}
}
