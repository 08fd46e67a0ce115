package output

import (
	"fmt"
	"io"
)

// Emoji controls the symbol prefix of status lines. It is turned off when
// colored output is disabled.
//
//nolint:gochecknoglobals // process-wide display preference
var Emoji = true

func line(w io.Writer, symbol, label, msg string) error {
	prefix := symbol
	if !Emoji {
		prefix = label
	}
	_, err := fmt.Fprintln(w, prefix+msg)
	return err
}

// Info writes an informational line.
func Info(w io.Writer, msg string) error {
	return line(w, "ℹ️  ", "info: ", msg)
}

// Warn writes a warning line.
func Warn(w io.Writer, msg string) error {
	return line(w, "⚠️  ", "warning: ", msg)
}

// Success writes a success line.
func Success(w io.Writer, msg string) error {
	return line(w, "✅ ", "ok: ", msg)
}

// Failure writes an error line.
func Failure(w io.Writer, msg string) error {
	return line(w, "❌ ", "error: ", msg)
}
