// Package ipc is the remote shell's wire protocol.
//
// A request is the raw command line followed by a single NUL byte. A
// response is whatever the pipeline wrote followed by a single 0x04 byte.
// Neither side uses length prefixes, so both ends must reassemble messages
// across however many reads the network delivers them in.
package ipc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Message boundaries.
const (
	RequestEnd  byte = 0x00
	ResponseEnd byte = 0x04
)

// ErrRequestTooLarge is returned when a request exceeds the reader's limit
// without a terminator.
var ErrRequestTooLarge = errors.New("request too large")

// WriteRequest sends one command line.
func WriteRequest(w io.Writer, line string) error {
	if bytes.IndexByte([]byte(line), RequestEnd) >= 0 {
		return fmt.Errorf("request contains NUL byte")
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, RequestEnd)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// WriteEOF marks the end of one response.
func WriteEOF(w io.Writer) error {
	if _, err := w.Write([]byte{ResponseEnd}); err != nil {
		return fmt.Errorf("write response end: %w", err)
	}
	return nil
}

// Reader reassembles NUL-terminated requests from a stream. Bytes after a
// terminator are kept for the next call.
type Reader struct {
	r       io.Reader
	max     int
	buf     []byte
	pending []byte
	err     error
}

// NewReader returns a Reader that rejects requests longer than max bytes.
func NewReader(r io.Reader, max int) *Reader {
	return &Reader{r: r, max: max, buf: make([]byte, 4096)}
}

// ReadRequest blocks until a complete request has arrived and returns it
// without the terminator. It returns io.EOF when the peer closes cleanly
// between requests and io.ErrUnexpectedEOF when it closes mid-request.
func (r *Reader) ReadRequest() (string, error) {
	for {
		if i := bytes.IndexByte(r.pending, RequestEnd); i >= 0 {
			if r.max > 0 && i > r.max {
				return "", ErrRequestTooLarge
			}
			line := string(r.pending[:i])
			r.pending = r.pending[i+1:]
			return line, nil
		}
		if r.max > 0 && len(r.pending) > r.max {
			return "", ErrRequestTooLarge
		}
		if r.err != nil {
			if r.err == io.EOF && len(r.pending) > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", r.err
		}

		n, err := r.r.Read(r.buf)
		r.pending = append(r.pending, r.buf[:n]...)
		r.err = err
	}
}

// ReadResponse copies one response from r to w, stopping after the end
// marker. It returns io.EOF if the peer closed before sending anything and
// io.ErrUnexpectedEOF if it closed part way through.
func ReadResponse(r *bufio.Reader, w io.Writer) error {
	seen := false
	for {
		chunk, err := r.ReadSlice(ResponseEnd)
		if len(chunk) > 0 {
			seen = true
			data := chunk
			if err == nil {
				data = chunk[:len(chunk)-1]
			}
			if _, werr := w.Write(data); werr != nil {
				return werr
			}
		}
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF && seen:
			return io.ErrUnexpectedEOF
		default:
			return err
		}
	}
}
