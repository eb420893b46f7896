// Package reader turns a file source into a lazy sequence of logical lines,
// joining trailing-backslash line continuations the way a C preprocessor
// joins them, but preserving a dangling backslash at end-of-file verbatim
// (a warning, not an error — see DESIGN.md open-question decisions).
package reader

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/blockpp/blockpp/logsink"
	"github.com/blockpp/blockpp/pperrors"
)

// Line is a single logical line: raw text after continuation joining, its
// origin file and starting physical line number, and whether it is anchored
// (begins, after leading whitespace, with the configured directive prefix).
type Line struct {
	Text      string
	File      string
	StartLine int
	Anchored  bool
}

// Reader reads logical lines from r, one at a time, joining continuations.
type Reader struct {
	sc     *bufio.Scanner
	file   string
	prefix byte
	lineNo int
	sink   logsink.Sink
}

// New constructs a Reader over r. file names the origin for error/line
// reporting; prefix is the configured directive prefix character (default
// '#'); sink receives the warning raised for a dangling EOF continuation. A
// nil sink silently drops that warning.
func New(r io.Reader, file string, prefix byte, sink logsink.Sink) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanLines)
	return &Reader{sc: sc, file: file, prefix: prefix, lineNo: 0, sink: sink}
}

// Next returns the next logical line. ok is false once the source is
// exhausted; err is non-nil only on an underlying I/O failure.
func (r *Reader) Next() (Line, bool, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return Line{}, false, pperrors.Wrap(pperrors.IOFailure, err, fmt.Sprintf("reading %s", r.file))
		}
		return Line{}, false, nil
	}
	startLine := r.lineNo + 1
	r.lineNo++
	raw := r.sc.Text()

	var joined strings.Builder
	for {
		if !strings.HasSuffix(raw, "\\") {
			joined.WriteString(raw)
			break
		}
		trimmed := raw[:len(raw)-1]
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				return Line{}, false, pperrors.Wrap(pperrors.IOFailure, err, fmt.Sprintf("reading %s", r.file))
			}
			// Dangling backslash at EOF: warning, backslash preserved verbatim.
			if r.sink != nil {
				r.sink.Logf(logsink.Warn, fmt.Sprintf("%s:%d", r.file, startLine),
					"trailing line-continuation backslash with no following line")
			}
			joined.WriteString(raw)
			break
		}
		r.lineNo++
		joined.WriteString(trimmed)
		raw = r.sc.Text()
	}

	text := joined.String()
	return Line{
		Text:      text,
		File:      r.file,
		StartLine: startLine,
		Anchored:  isAnchored(text, r.prefix),
	}, true, nil
}

// isAnchored reports whether text begins, after leading whitespace, with the
// directive prefix character.
func isAnchored(text string, prefix byte) bool {
	i := 0
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return i < len(text) && text[i] == prefix
}

// Lines drains the Reader into a slice. Intended for tests and small inputs;
// the Expander (package expand) never calls this — it drives Next directly
// so expansion stays lazy.
func Lines(r *Reader) ([]Line, error) {
	var out []Line
	for {
		line, ok, err := r.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, line)
	}
}
