package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Parse errors. The error text is what the user sees.
var (
	ErrNoCommands      = errors.New("warning: no commands provided")
	ErrEmptyCommand    = errors.New("error: piping is improperly formatted")
	ErrTooManyCommands = errors.New("error: too many commands")
	ErrCommandTooLong  = errors.New("error: command or arguments were too big")
	ErrRedirection     = errors.New("error: redirection is improperly formatted")
)

// Resource errors returned by Executor.Run.
var (
	ErrPipe  = errors.New("error: could not allocate memory")
	ErrSpawn = errors.New("error: could not fork the process")
)

// LimitError reports a pipeline with more stages than allowed. It matches
// ErrTooManyCommands under errors.Is.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("error: piping limited to %d commands", e.Max)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrTooManyCommands
}

// IsWarning reports whether err is advisory rather than a failure.
func IsWarning(err error) bool {
	return errors.Is(err, ErrNoCommands)
}

// errnoMessages is the fixed taxonomy for failures to start a program.
var errnoMessages = map[unix.Errno]string{
	unix.EPERM:   "Operation not permitted",
	unix.ENOENT:  "Command not found in PATH",
	unix.EACCES:  "Permission denied",
	unix.E2BIG:   "Argument list too long",
	unix.ENOEXEC: "Exec format error",
	unix.EISDIR:  "Is a directory",
}

const defaultExecMessage = "error: could not execute the program"

// ExecError is a stage that could not be started, either because the program
// could not be executed or because a redirection target could not be opened.
// Its status is the errno value.
type ExecError struct {
	Name     string // program name or redirection path
	Errno    unix.Errno
	Redirect bool
}

func (e *ExecError) Error() string {
	return e.Name + ": " + e.Message()
}

// Message returns the taxonomy text for the error.
func (e *ExecError) Message() string {
	if e.Redirect && e.Errno == unix.ENOENT {
		return "File not found"
	}
	if msg, ok := errnoMessages[e.Errno]; ok {
		return msg
	}
	return defaultExecMessage
}

// Code is the stage exit status.
func (e *ExecError) Code() int {
	if e.Errno == 0 {
		return 1
	}
	return int(e.Errno)
}

// classify maps an error from exec or os into the taxonomy.
func classify(name string, err error, redirect bool) *ExecError {
	e := &ExecError{Name: name, Redirect: redirect}
	var errno unix.Errno
	switch {
	case errors.As(err, &errno):
		e.Errno = errno
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		e.Errno = unix.ENOENT
	case errors.Is(err, fs.ErrPermission):
		e.Errno = unix.EACCES
	}
	return e
}
