package common

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsInteractiveInput reports whether reader is a terminal rather than a
// pipe or file.
func IsInteractiveInput(reader io.Reader) bool {
	file, ok := reader.(*os.File)
	if !ok || file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
