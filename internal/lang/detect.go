// Package lang maps filenames to the language identifiers the scanner
// applicability rules use.
package lang

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// byExtension covers the common cases without consulting chroma, and
// pins the identifiers scanners are registered under.
var byExtension = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".go":   "go",
	".rb":   "ruby",
	".java": "java",
	".rs":   "rust",
	".php":  "php",
	".cs":   "csharp",
	".sh":   "shell",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".tf":   "terraform",
	".sql":  "sql",
}

// Detect returns the language identifier for a filename, falling back
// to chroma's lexer registry for extensions the table does not cover.
// Unknown files yield "text", which only the language-agnostic
// scanners pick up.
func Detect(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if l, ok := byExtension[ext]; ok {
		return l
	}
	if lx := lexers.Match(filepath.Base(filename)); lx != nil {
		name := strings.ToLower(lx.Config().Name)
		// chroma names a few languages differently than our registry.
		switch name {
		case "python 2":
			return "python"
		case "c#":
			return "csharp"
		}
		return name
	}
	return "text"
}

// Known reports whether the per-language scanners have rules for lang.
func Known(lang string) bool {
	switch lang {
	case "python", "javascript", "typescript":
		return true
	}
	return false
}
