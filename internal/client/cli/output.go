package cli

import "github.com/fatih/color"

// Shared output styles. Color is suppressed automatically when stdout is
// not a terminal.
var (
	okColor     = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
	warnColor   = color.New(color.FgYellow)
	headerColor = color.New(color.FgCyan, color.Bold)
)
