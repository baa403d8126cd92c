// Package client talks to a dsh server: it sends command lines and relays
// the output that comes back.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/marcelocantos/dsh/internal/ipc"
	"github.com/marcelocantos/dsh/internal/pipeline"
)

// ErrClosed is returned by Exec when the server hung up instead of
// answering.
var ErrClosed = errors.New("connection closed by server")

// ErrCommunication is the message shown when a session fails.
var ErrCommunication = errors.New("rdsh-error: communications error")

// Client is one connection to a dsh server. It is not safe for concurrent
// use.
type Client struct {
	conn net.Conn
	br   *bufio.Reader
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn, br: bufio.NewReader(conn)}
}

// Connect dials addr, retrying with backoff while the server comes up.
func Connect(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err == nil {
		return New(conn), nil
	}

	delays := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		500 * time.Millisecond,
	}
	for _, delay := range delays {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if conn, err = d.DialContext(ctx, "tcp", addr); err == nil {
			return New(conn), nil
		}
	}
	return nil, fmt.Errorf("connect %s: %w", addr, err)
}

// Exec sends line and copies the response to out. It returns ErrClosed if
// the server closed the connection without responding, which is how the
// server acknowledges exit and stop-server.
func (c *Client) Exec(line string, out io.Writer) error {
	if err := ipc.WriteRequest(c.conn, line); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	err := ipc.ReadResponse(c.br, out)
	if errors.Is(err, io.EOF) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// EndsSession reports whether the server will hang up after running line,
// because one of its stages is exit or stop-server.
func EndsSession(line string) bool {
	p, err := pipeline.Parse(line)
	if err != nil {
		return false
	}
	return p.Contains("exit") || p.Contains("stop-server")
}
