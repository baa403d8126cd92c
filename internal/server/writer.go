package server

import (
	"io"
	"sync"

	"github.com/juju/ratelimit"

	"github.com/marcelocantos/dsh/internal/ipc"
)

// connWriter serialises writes from concurrent pipeline stages onto one
// connection. The first write error sticks, so a departed client fails
// every later write quickly.
type connWriter struct {
	mu   sync.Mutex
	conn io.Writer
	w    io.Writer
	err  error
}

// newConnWriter wraps conn, throttling output through bucket when non-nil.
func newConnWriter(conn io.Writer, bucket *ratelimit.Bucket) *connWriter {
	w := conn
	if bucket != nil {
		w = ratelimit.Writer(conn, bucket)
	}
	return &connWriter{conn: conn, w: w}
}

func (cw *connWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	if err != nil {
		cw.err = err
	}
	return n, err
}

// EOF ends the current response. It reports any error from this
// response's output as well.
func (cw *connWriter) EOF() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.err != nil {
		return cw.err
	}
	if err := ipc.WriteEOF(cw.conn); err != nil {
		cw.err = err
		return err
	}
	return nil
}
