// Package osc52 sets the terminal emulator's own clipboard via an OSC52
// escape sequence — a supplemental sink for `pull` when the operator is
// themselves inside a remote shell and no OS clipboard is reachable there.
package osc52

import (
	"io"
	"os"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
)

// Eligible reports whether w looks like a terminal that can receive an
// OSC52 sequence — there is no ack from the terminal, so this is the only
// check available before writing.
func Eligible(w *os.File) bool {
	return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
}

// Set writes an OSC52 copy sequence for text to w. Only text/plain content
// is meaningful here; image bytes have no terminal-clipboard representation.
func Set(w io.Writer, text string) error {
	seq := osc52.New(text)
	_, err := seq.WriteTo(w)
	return err
}
