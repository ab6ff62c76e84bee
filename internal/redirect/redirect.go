// Package redirect buffers text output produced by script execution and
// flushes complete lines to the host's print sink. Partial lines are
// retained across writes until a newline arrives.
package redirect

import "bytes"

// Redirector is the line-buffering writer installed as the output target of
// script-facing calls. It implements io.Writer so a Lua print replacement
// (or anything else) can stream into it.
type Redirector struct {
	sink func(string)
	buf  bytes.Buffer
}

// New creates a Redirector that flushes complete lines to sink. The sink
// receives the flushed segment without its trailing newline, since the host
// print call appends its own formatting.
func New(sink func(string)) *Redirector {
	return &Redirector{sink: sink}
}

// Write appends p to the buffer. If p contains a newline, everything up to
// and including the last newline in the cumulative buffer is flushed as one
// sink call, and the buffer keeps only the remainder.
func (r *Redirector) Write(p []byte) (int, error) {
	if i := bytes.LastIndexByte(p, '\n'); i >= 0 {
		r.buf.Write(p[:i])
		r.sink(r.buf.String())
		r.buf.Reset()
		r.buf.Write(p[i+1:])
	} else {
		r.buf.Write(p)
	}
	return len(p), nil
}

// WriteString is a convenience wrapper over Write.
func (r *Redirector) WriteString(s string) {
	_, _ = r.Write([]byte(s))
}

// Println writes s followed by a newline, flushing through the buffer so
// any retained partial line is emitted ahead of s on the same print call.
func (r *Redirector) Println(s string) {
	r.WriteString(s + "\n")
}

// Pending returns the currently buffered partial line.
func (r *Redirector) Pending() string {
	return r.buf.String()
}

// Reset discards any buffered partial line.
func (r *Redirector) Reset() {
	r.buf.Reset()
}
