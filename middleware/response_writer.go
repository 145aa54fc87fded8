package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// responseWriter tracks the response status and size and runs an optional hook
// exactly once, right before the status line and headers are committed.
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	size          int
	headerWritten bool
	hijacked      bool
	beforeHeader  func()
}

func wrapResponseWriter(w http.ResponseWriter, beforeHeader func()) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		beforeHeader:   beforeHeader,
	}
}

// commit runs the hook if the headers have not been committed yet.
func (rw *responseWriter) commit() {
	if rw.beforeHeader != nil {
		hook := rw.beforeHeader
		rw.beforeHeader = nil
		hook()
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.headerWritten {
		return
	}
	rw.commit()
	rw.statusCode = statusCode
	rw.headerWritten = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Flush commits the headers and flushes buffered data to the client.
func (rw *responseWriter) Flush() {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack hands the connection over to the caller. Headers set on the wrapper are
// never sent, so the hook is dropped without running.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("middleware: response writer does not support hijacking")
	}
	conn, buf, err := h.Hijack()
	if err == nil {
		rw.beforeHeader = nil
		rw.hijacked = true
		rw.headerWritten = true
		rw.statusCode = http.StatusSwitchingProtocols
	}
	return conn, buf, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
