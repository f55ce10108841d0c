package sse

import (
	"bytes"
	"strings"
)

// assembles complete lines from arbitrarily split chunks of text
type Framer struct {
	buf []byte
}

func NewFramer() *Framer {
	return &Framer{}
}

// appends raw bytes to the assembly buffer
func (f *Framer) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

// returns the next complete line without its terminator
// a trailing carriage return is stripped
func (f *Framer) Next() (string, bool) {
	idx := bytes.IndexByte(f.buf, '\n')
	if idx < 0 {
		return "", false
	}

	line := string(f.buf[:idx])
	f.buf = f.buf[idx+1:]

	return strings.TrimSuffix(line, "\r"), true
}

// pushes a line back onto the front of the buffer
func (f *Framer) Unread(line string) {
	restored := make([]byte, 0, len(line)+1+len(f.buf))
	restored = append(restored, line...)
	restored = append(restored, '\n')
	restored = append(restored, f.buf...)
	f.buf = restored
}

// drains whatever is buffered, complete or not
func (f *Framer) Rest() string {
	rest := string(f.buf)
	f.buf = nil
	return rest
}

// number of buffered bytes not yet returned as lines
func (f *Framer) Buffered() int {
	return len(f.buf)
}
