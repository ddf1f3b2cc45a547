package emit

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Writer accumulates generated text in memory and flushes it to a single
// file on disk. Nothing touches the file until Flush, which writes the
// whole buffer in one call.
type Writer struct {
	path string
	buf  strings.Builder

	appending bool
}

// NewWriter creates a Writer that will flush to path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write appends text to the buffer.
func (w *Writer) Write(text string) {
	w.buf.WriteString(text)
}

// WriteIncludeDirective appends a #include "name" line, unless the buffer
// already holds that exact line. Callers decide which names to pass.
func (w *Writer) WriteIncludeDirective(name string) {
	line := fmt.Sprintf("#include \"%s\"\n", name)
	if strings.Contains(w.buf.String(), line) {
		return
	}
	w.buf.WriteString(line)
}

// PrepareToAppend marks the writer so a following Flush appends to an
// existing file instead of truncating it. Used when several declarations
// share one module file, so each later declaration's output lands after
// what the earlier ones already wrote.
func (w *Writer) PrepareToAppend() error {
	w.appending = true
	return nil
}

// IsAppending reports whether Flush will append rather than truncate.
func (w *Writer) IsAppending() bool {
	return w.appending
}

// Clear discards the buffered text without touching the file on disk.
func (w *Writer) Clear() {
	w.buf.Reset()
}

// Flush writes the accumulated buffer to disk and resets the buffer.
func (w *Writer) Flush() error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if w.appending {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(w.path, flags, 0644)
	if err != nil {
		return errors.Wrapf(err, "open %s", w.path)
	}
	defer f.Close()
	if _, err := f.WriteString(w.buf.String()); err != nil {
		return errors.Wrapf(err, "write %s", w.path)
	}
	w.buf.Reset()
	return nil
}

// MakeLineSeparator returns a banner comment used to visually separate
// sections of generated source, matching the look of hand-written dividers
// in the original tool's output.
func MakeLineSeparator() string {
	return "/*=============================================================================\n*/\n"
}
