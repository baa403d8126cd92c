package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"github.com/marcelocantos/dsh/internal/builtin"
)

// Streams are the external ends of a pipeline: the terminal locally, or the
// client connection remotely. A nil Stdin reads as empty.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Executor runs parsed pipelines, one process per external stage.
type Executor struct {
	builtins *builtin.Registry
	fs       afero.Fs
	spawned  atomic.Int64
}

// NewExecutor returns an executor that intercepts the given built-ins and
// opens redirection targets on fs.
func NewExecutor(builtins *builtin.Registry, fs afero.Fs) *Executor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Executor{builtins: builtins, fs: fs}
}

// Spawned reports how many processes this executor has started.
func (e *Executor) Spawned() int64 {
	return e.spawned.Load()
}

// Run executes p within sess. Every pipe is created before any stage runs.
// Built-ins run synchronously in stage order; external stages run
// concurrently as child processes and are all waited for before Run returns.
//
// A stage that cannot be started reports on Stderr and takes the errno as its
// status without affecting its siblings. The returned error is reserved for
// resource failures that abort the whole pipeline.
func (e *Executor) Run(ctx context.Context, p *Pipeline, sess *builtin.Session, streams Streams) (Result, error) {
	n := len(p.Commands)
	if n == 1 && p.Commands[0].Exe == "exit" {
		if _, ok := e.builtins.Lookup("exit"); ok {
			return Result{Kind: Exited}, nil
		}
	}
	if streams.Stdout == nil {
		streams.Stdout = io.Discard
	}
	if streams.Stderr == nil {
		streams.Stderr = io.Discard
	}

	var files fileSet
	defer files.Close()

	pipes := make([]pipeEnds, n-1)
	for i := range pipes {
		r, w, err := os.Pipe()
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrPipe, err)
		}
		pipes[i] = pipeEnds{r: r, w: w}
		files.Add(r, w)
	}

	stages := make([]StageResult, n)
	procs := make([]*exec.Cmd, n)
	var redirected fileSet
	defer redirected.Close()

	var fatal error
	for i, cmd := range p.Commands {
		stage := &stages[i]
		stage.Name = cmd.Exe

		stdin, stdout := streams.Stdin, streams.Stdout
		if i > 0 {
			stdin = pipes[i-1].r
		}
		if i < n-1 {
			stdout = pipes[i].w
		}

		if i == 0 && cmd.InputFile != "" {
			f, err := e.open(sess, cmd.InputFile, os.O_RDONLY, 0)
			if err != nil {
				e.fail(stage, classify(cmd.InputFile, err, true), streams.Stderr)
				continue
			}
			redirected.Add(f)
			stdin = f
		}
		if i == n-1 && cmd.OutputFile != "" {
			flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			if cmd.Append {
				flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
			}
			f, err := e.open(sess, cmd.OutputFile, flags, 0o644)
			if err != nil {
				e.fail(stage, classify(cmd.OutputFile, err, true), streams.Stderr)
				continue
			}
			redirected.Add(f)
			stdout = f
		}

		if b, ok := e.builtins.Lookup(cmd.Exe); ok {
			stage.Builtin = true
			stage.Action, stage.Code = b.Run(&builtin.Env{
				Session: sess,
				Fs:      e.fs,
				Stdin:   readerOrEmpty(stdin),
				Stdout:  stdout,
				Stderr:  streams.Stderr,
			}, cmd.Args)
			continue
		}

		c, err := e.start(ctx, sess, cmd, stdin, stdout, streams.Stderr)
		if err != nil {
			var ee *ExecError
			if !errors.As(err, &ee) {
				fatal = err
				break
			}
			e.fail(stage, ee, streams.Stderr)
			continue
		}
		stage.Started = true
		procs[i] = c
	}

	// Children hold their own copies of the pipe descriptors. Closing ours
	// lets each reader see EOF once its writer exits.
	files.Close()

	for i, c := range procs {
		if c != nil {
			stages[i].Code = exitStatus(c.Wait())
		}
	}
	if fatal != nil {
		return Result{}, fatal
	}

	res := Result{Kind: Completed, Code: stages[n-1].Code, Stages: stages}
	for _, s := range stages {
		if res.Kind != Completed {
			break
		}
		switch s.Action {
		case builtin.Exit:
			res.Kind = Exited
		case builtin.StopServer:
			res.Kind = StoppedServer
		}
	}
	if last := stages[n-1]; !last.Builtin {
		sess.SetLastStatus(last.Code)
	}
	return res, nil
}

func (e *Executor) start(ctx context.Context, sess *builtin.Session, cmd Command, stdin io.Reader, stdout, stderr io.Writer) (*exec.Cmd, error) {
	dir := sess.Dir()
	if strings.ContainsRune(cmd.Exe, '/') {
		path := cmd.Exe
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return nil, &ExecError{Name: cmd.Exe, Errno: unix.EISDIR}
		}
	}

	c := exec.CommandContext(ctx, cmd.Exe, cmd.Args...)
	if errors.Is(c.Err, exec.ErrDot) {
		c.Err = nil
	}
	c.Dir = dir
	c.Stdin = stdin
	c.Stdout = stdout
	c.Stderr = stderr

	if err := c.Start(); err != nil {
		ee := classify(cmd.Exe, err, false)
		if ee.Errno == 0 && !isExecFailure(err) {
			return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
		}
		return nil, ee
	}
	e.spawned.Add(1)
	return c, nil
}

func (e *Executor) open(sess *builtin.Session, path string, flag int, perm os.FileMode) (afero.File, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(sess.Dir(), path)
	}
	return e.fs.OpenFile(path, flag, perm)
}

func (e *Executor) fail(stage *StageResult, err *ExecError, stderr io.Writer) {
	stage.Err = err
	stage.Code = err.Code()
	fmt.Fprintln(stderr, err.Error())
}

// isExecFailure reports whether a Start error came from resolving or
// executing the program rather than from the runtime.
func isExecFailure(err error) bool {
	var execErr *exec.Error
	var pathErr *os.PathError
	return errors.As(err, &execErr) || errors.As(err, &pathErr)
}

// exitStatus converts the result of Wait into a shell status. A child
// killed by a signal reports 128 plus the signal number.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}

// readerOrEmpty stands in an empty reader for a missing stdin.
func readerOrEmpty(r io.Reader) io.Reader {
	if r == nil {
		return strings.NewReader("")
	}
	return r
}

type pipeEnds struct {
	r, w *os.File
}

// fileSet owns descriptors until Close. Close is safe to call repeatedly.
type fileSet struct {
	files []io.Closer
}

func (s *fileSet) Add(files ...io.Closer) {
	s.files = append(s.files, files...)
}

func (s *fileSet) Close() {
	for _, f := range s.files {
		f.Close()
	}
	s.files = nil
}
