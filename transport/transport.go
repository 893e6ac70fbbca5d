// Package transport frames the bridge's line protocol over byte streams:
// one request or response per newline-terminated line.
package transport

import (
	"bufio"
	"io"
	"os"

	"github.com/wippyai/bridge-runtime/errors"
)

// Line reads newline-terminated frames from r and writes them to w. A
// failed or exhausted read surfaces as a connection-lost error, which ends
// the session.
type Line struct {
	r *bufio.Reader
	w *bufio.Writer
	c []io.Closer
}

// New frames lines over an arbitrary reader/writer pair.
func New(r io.Reader, w io.Writer) *Line {
	return &Line{r: bufio.NewReader(r), w: bufio.NewWriter(w)}
}

// Stdio frames lines over the process's standard streams.
func Stdio() *Line {
	return New(os.Stdin, os.Stdout)
}

// Files frames lines over two open files, requests in and responses out,
// closing both when the transport closes.
func Files(in, out *os.File) *Line {
	t := New(in, out)
	t.c = []io.Closer{in, out}
	return t
}

// Receive blocks for the next line and returns it without the trailing
// newline.
func (t *Line) Receive() ([]byte, error) {
	line, err := t.r.ReadBytes('\n')
	if err != nil {
		if len(line) > 0 && err == io.EOF {
			return line, nil
		}
		return nil, errors.ConnectionLost(err)
	}
	return line[:len(line)-1], nil
}

// Send writes one line, appending the newline, and flushes.
func (t *Line) Send(line []byte) error {
	if _, err := t.w.Write(line); err != nil {
		return errors.ConnectionLost(err)
	}
	if err := t.w.WriteByte('\n'); err != nil {
		return errors.ConnectionLost(err)
	}
	if err := t.w.Flush(); err != nil {
		return errors.ConnectionLost(err)
	}
	return nil
}

// Close releases any owned file descriptors.
func (t *Line) Close() error {
	var first error
	for _, c := range t.c {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Pipe returns two connected in-memory transports: what one side sends the
// other receives. Used by tests and the in-process console.
func Pipe() (*Line, *Line) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	left := New(ar, bw)
	left.c = []io.Closer{ar, bw}
	right := New(br, aw)
	right.c = []io.Closer{br, aw}
	return left, right
}
