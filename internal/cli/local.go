package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/marcelocantos/dsh/internal/builtin"
	"github.com/marcelocantos/dsh/internal/pipeline"
	"github.com/marcelocantos/dsh/internal/shell"
)

// runLocal is the interactive loop. The first stage of each pipeline reads
// from stdin only when stdin is a file; otherwise the lines still to be
// read would be consumed by the child.
func runLocal(ctx context.Context, sh *shell.Shell, lines lineReader, stdin io.Reader, stdout, stderr io.Writer) int {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "dsh: %v\n", err)
		return 1
	}
	sess := builtin.NewSession(uuid.NewString(), dir, false)

	streams := pipeline.Streams{Stdout: stdout, Stderr: stderr}
	if f, ok := stdin.(*os.File); ok {
		streams.Stdin = f
	}

	for {
		line, err := lines.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return 0
		case err != nil:
			fmt.Fprintf(stderr, "dsh: %v\n", err)
			return 1
		}

		res, _ := sh.RunLine(ctx, sess, line, streams)
		if res.Kind == pipeline.Exited {
			return 0
		}
	}
}
