package utils

import (
	"strings"

	"github.com/PolarWolf314/credvault/internal/ui"
)

// FormatPaths formats a slice of paths into a readable string.
func FormatPaths(paths []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(path))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatFields formats field names as a bulleted list.
func FormatFields(fields []string) string {
	var b strings.Builder
	for _, field := range fields {
		b.WriteString("    - ")
		b.WriteString(ui.Highlight.Sprint(field))
		b.WriteString("\n")
	}
	return b.String()
}
