package client

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcelocantos/dsh/internal/ipc"
)

// mockServer answers requests on the server side of a net.Pipe. A nil
// reply from handler hangs up instead of responding.
func mockServer(t *testing.T, conn net.Conn, handler func(line string) *string) {
	t.Helper()
	defer conn.Close()

	r := ipc.NewReader(conn, 0)
	for {
		line, err := r.ReadRequest()
		if err != nil {
			return
		}
		reply := handler(line)
		if reply == nil {
			return
		}
		if *reply != "" {
			if _, err := conn.Write([]byte(*reply)); err != nil {
				t.Errorf("mock: write: %v", err)
				return
			}
		}
		if err := ipc.WriteEOF(conn); err != nil {
			t.Errorf("mock: write eof: %v", err)
			return
		}
	}
}

func reply(s string) *string { return &s }

func TestExecBasic(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	var got []string
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		mockServer(t, serverConn, func(line string) *string {
			got = append(got, line)
			return reply("hello world\n")
		})
	}()

	c := New(clientConn)
	var out strings.Builder
	if err := c.Exec("echo hello world", &out); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	c.Close()
	wg.Wait()

	if out.String() != "hello world\n" {
		t.Errorf("output = %q, want %q", out.String(), "hello world\n")
	}
	if len(got) != 1 || got[0] != "echo hello world" {
		t.Errorf("server saw %q", got)
	}
}

func TestExecMultipleRequests(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go mockServer(t, serverConn, func(line string) *string {
		return reply(strings.ToUpper(line) + "\n")
	})

	c := New(clientConn)
	defer c.Close()
	for _, line := range []string{"one", "two", "three"} {
		var out strings.Builder
		if err := c.Exec(line, &out); err != nil {
			t.Fatalf("Exec(%q): %v", line, err)
		}
		if want := strings.ToUpper(line) + "\n"; out.String() != want {
			t.Errorf("Exec(%q) = %q, want %q", line, out.String(), want)
		}
	}
}

func TestExecEmptyResponse(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go mockServer(t, serverConn, func(string) *string { return reply("") })

	c := New(clientConn)
	defer c.Close()
	var out strings.Builder
	if err := c.Exec("cd /", &out); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}

func TestExecServerHangsUp(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go mockServer(t, serverConn, func(string) *string { return nil })

	c := New(clientConn)
	defer c.Close()
	var out strings.Builder
	if err := c.Exec("exit", &out); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestExecTruncatedResponse(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go func() {
		defer serverConn.Close()
		r := ipc.NewReader(serverConn, 0)
		if _, err := r.ReadRequest(); err != nil {
			return
		}
		serverConn.Write([]byte("partial"))
	}()

	c := New(clientConn)
	defer c.Close()
	var out strings.Builder
	err := c.Exec("cat big", &out)
	if err == nil || errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want a receive error", err)
	}
	if out.String() != "partial" {
		t.Errorf("output = %q, want %q", out.String(), "partial")
	}
}

func TestConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		mockServer(t, conn, func(string) *string { return reply("ok\n") })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Connect(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	var out strings.Builder
	if err := c.Exec("anything", &out); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out.String() != "ok\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestConnectGivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := Connect(ctx, addr); err == nil {
		t.Fatal("expected error connecting to closed port")
	}
}

func TestConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Connect(ctx, "127.0.0.1:1"); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestEndsSession(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"exit", true},
		{"  exit  ", true},
		{"stop-server", true},
		{"echo hi | exit", true},
		{"echo exit", false},
		{"ls -l", false},
		{"", false},
		{"ls |", false},
	}
	for _, tt := range tests {
		if got := EndsSession(tt.line); got != tt.want {
			t.Errorf("EndsSession(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
