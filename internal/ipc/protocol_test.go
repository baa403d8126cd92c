package ipc

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestWriteRequest(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRequest(&buf, "ls -l | wc"); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "ls -l | wc\x00"; got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}

	if err := WriteRequest(&buf, "bad\x00line"); err == nil {
		t.Error("expected error for embedded NUL")
	}
}

func TestReadRequestReassemblesFragments(t *testing.T) {
	// One byte per Read forces reassembly across many receives.
	r := NewReader(iotest.OneByteReader(strings.NewReader("echo hello world\x00")), 1024)
	got, err := r.ReadRequest()
	if err != nil {
		t.Fatal(err)
	}
	if got != "echo hello world" {
		t.Errorf("request = %q", got)
	}
	if _, err := r.ReadRequest(); err != io.EOF {
		t.Errorf("expected io.EOF after last request, got %v", err)
	}
}

func TestReadRequestSplitsCoalesced(t *testing.T) {
	r := NewReader(strings.NewReader("ls\x00rc\x00\x00exit\x00"), 1024)
	want := []string{"ls", "rc", "", "exit"}
	for i, w := range want {
		got, err := r.ReadRequest()
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if got != w {
			t.Errorf("request %d = %q, want %q", i, got, w)
		}
	}
}

func TestReadRequestOverPipe(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		for _, part := range []string{"ec", "ho ", "hi", "\x00"} {
			pw.Write([]byte(part))
		}
		pw.Close()
	}()

	r := NewReader(pr, 1024)
	got, err := r.ReadRequest()
	if err != nil {
		t.Fatal(err)
	}
	if got != "echo hi" {
		t.Errorf("request = %q", got)
	}
}

func TestReadRequestUnexpectedEOF(t *testing.T) {
	r := NewReader(strings.NewReader("partial"), 1024)
	if _, err := r.ReadRequest(); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadRequestTooLarge(t *testing.T) {
	r := NewReader(strings.NewReader(strings.Repeat("x", 10000)+"\x00"), 100)
	if _, err := r.ReadRequest(); !errors.Is(err, ErrRequestTooLarge) {
		t.Errorf("expected ErrRequestTooLarge, got %v", err)
	}
}

func TestReadResponse(t *testing.T) {
	wire := "hello\nworld\n\x04second\x04"
	br := bufio.NewReader(iotest.HalfReader(strings.NewReader(wire)))

	var out strings.Builder
	if err := ReadResponse(br, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello\nworld\n" {
		t.Errorf("first response = %q", out.String())
	}

	out.Reset()
	if err := ReadResponse(br, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "second" {
		t.Errorf("second response = %q", out.String())
	}

	if err := ReadResponse(br, &out); err != io.EOF {
		t.Errorf("expected io.EOF at clean close, got %v", err)
	}
}

func TestReadResponseLargerThanBuffer(t *testing.T) {
	payload := strings.Repeat("y", 100000)
	br := bufio.NewReaderSize(strings.NewReader(payload+"\x04"), 16)

	var out bytes.Buffer
	if err := ReadResponse(br, &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != len(payload) {
		t.Errorf("got %d bytes, want %d", out.Len(), len(payload))
	}
}

func TestReadResponseTruncated(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("partial output"))
	var out strings.Builder
	if err := ReadResponse(br, &out); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if out.String() != "partial output" {
		t.Errorf("partial = %q", out.String())
	}
}

func TestAddresses(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"server defaults", ServerAddress("", 0), "0.0.0.0:1234"},
		{"server explicit", ServerAddress("127.0.0.1", 5555), "127.0.0.1:5555"},
		{"client defaults", ClientAddress("", 0), "127.0.0.1:1234"},
		{"client wildcard", ClientAddress("0.0.0.0", 4000), "127.0.0.1:4000"},
		{"client host", ClientAddress("example.com", 22), "example.com:22"},
		{"ipv6", ServerAddress("::1", 80), "[::1]:80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"10.0.0.1:9000", "10.0.0.1", 9000, false},
		{":9000", "0.0.0.0", 9000, false},
		{"10.0.0.1:", "10.0.0.1", 1234, false},
		{"nohostport", "", 0, true},
		{"host:notaport", "", 0, true},
		{"host:70000", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, port, err := ParseAddress(tt.in, DefaultServerInterface, DefaultPort)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got %s:%d, want %s:%d", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}
