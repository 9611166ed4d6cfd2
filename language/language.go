// Package language bundles the built-in wrapper languages.
package language

import (
	"path/filepath"
	"strings"

	"github.com/skillupx/skillupx/language/cpp"
	"github.com/skillupx/skillupx/language/java"
	"github.com/skillupx/skillupx/language/javascript"
	"github.com/skillupx/skillupx/language/python"
	"github.com/skillupx/skillupx/wrapper"
)

// All returns every built-in language.
func All() []wrapper.Language {
	return []wrapper.Language{
		python.New(),
		javascript.New(),
		java.New(),
		cpp.New(),
	}
}

// FromFilename returns the canonical language for a source file, or "" when
// the extension is not recognised.
func FromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	for _, lang := range All() {
		if lang.Extension() == ext {
			return lang.Name()
		}
	}
	switch ext {
	case ".mjs", ".cjs":
		return "javascript"
	case ".cc", ".cxx":
		return "cpp"
	}
	return ""
}
