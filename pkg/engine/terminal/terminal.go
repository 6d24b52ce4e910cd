package terminal

import (
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// GetSize returns the current terminal width and height.
// Falls back to defaults if stdout is not a terminal.
func GetSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return width, height
}

// GetWidth returns the current terminal width.
func GetWidth() int {
	width, _ := GetSize()
	return width
}

// IsInteractive reports whether stdout is a terminal, i.e. colour codes
// will be interpreted rather than written to a file or pipe.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Clip truncates s to at most width display columns. Wide runes count as
// two columns.
func Clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "")
}
