package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// lineReader yields input lines. Readline returns readline.ErrInterrupt on
// ^C and io.EOF at end of input.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// newLineReader uses readline when in is a terminal and a plain reader
// otherwise.
func newLineReader(prompt, historyFile string, in io.Reader, out io.Writer) (lineReader, error) {
	if f, ok := in.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		if historyFile != "" {
			os.MkdirAll(filepath.Dir(historyFile), 0700)
		}
		return readline.NewEx(&readline.Config{
			Prompt:          prompt,
			HistoryFile:     historyFile,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdin:           f,
			Stdout:          out,
		})
	}
	return &plainReader{prompt: prompt, br: bufio.NewReader(in), out: out}, nil
}

// plainReader prints the prompt and reads newline-terminated lines.
type plainReader struct {
	prompt string
	br     *bufio.Reader
	out    io.Writer
}

func (r *plainReader) Readline() (string, error) {
	fmt.Fprint(r.out, r.prompt)
	line, err := r.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return line, nil
		}
		fmt.Fprintln(r.out)
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *plainReader) Close() error { return nil }
