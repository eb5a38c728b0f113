package root

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var link = color.New(color.FgCyan, color.Underline).SprintFunc()

// printSessionURL prints the dashboard link of a session, highlighted when w
// is a terminal.
func printSessionURL(w io.Writer, url string) {
	if url == "" {
		return
	}
	if isTerminal(w) {
		url = link(url)
	}
	fmt.Fprintf(w, "Session replay: %s\n", url)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
