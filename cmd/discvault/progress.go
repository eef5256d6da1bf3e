package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// showProgress reports whether live progress bars should render on w. Bars
// stay off when output is piped or captured.
func showProgress(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
