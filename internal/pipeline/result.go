package pipeline

import (
	"fmt"

	"github.com/marcelocantos/dsh/internal/builtin"
)

// Kind distinguishes control outcomes from ordinary exit statuses.
type Kind int

const (
	Completed     Kind = iota // ran to completion; Code holds the status
	Exited                    // the exit built-in ran
	StoppedServer             // the stop-server built-in ran
)

func (k Kind) String() string {
	switch k {
	case Completed:
		return "completed"
	case Exited:
		return "exited"
	case StoppedServer:
		return "stopped-server"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one pipeline.
type Result struct {
	Kind   Kind
	Code   int // status of the last stage when Kind is Completed
	Stages []StageResult
}

// StageResult records what happened to one stage.
type StageResult struct {
	Name    string
	Builtin bool
	Action  builtin.Action // meaningful only for built-ins
	Started bool           // an external process was created
	Code    int
	Err     error // set when the stage could not be started
}

// CompletedWith returns a completed result with the given status.
func CompletedWith(code int) Result {
	return Result{Kind: Completed, Code: code}
}

func (r Result) String() string {
	if r.Kind == Completed {
		return fmt.Sprintf("completed(%d)", r.Code)
	}
	return r.Kind.String()
}
