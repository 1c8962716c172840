// Package ui provides semantic text formatting for CLI output.
//
// Formatters render colorized output on capable terminals. When NO_COLOR is
// set or the terminal doesn't support colors, text-based decorations
// (backticks, quotes, parentheses) are used instead.
//
//	ui.Code.Sprint("credvault init")           // Commands
//	ui.Path.Sprint("~/.config/credvault")      // Document paths
//	ui.Highlight.Sprint("db_password")         // Field names, modes
//	ui.Success.Sprint("✓")                     // Success indicators
//	ui.Error.Sprint("✗")                       // Error indicators
//	ui.Warning.Sprint("irreversible")          // Destructive warnings
//	ui.Muted.Sprint("scrypt")                  // Secondary details
package ui
