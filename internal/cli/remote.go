package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"

	"github.com/marcelocantos/dsh/internal/client"
	"github.com/marcelocantos/dsh/internal/logging"
	"github.com/marcelocantos/dsh/internal/server"
)

// runClient sends each input line to the server at addr and prints the
// responses.
func runClient(ctx context.Context, addr string, lines lineReader, stdout, stderr io.Writer, logger *logging.Logger) int {
	c, err := client.Connect(ctx, addr)
	if err != nil {
		fmt.Fprintf(stderr, "dsh: %v\n", err)
		return 1
	}
	defer c.Close()
	logger.Info("connected", "addr", addr)

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

		err = c.Exec(line, stdout)
		if err == nil {
			continue
		}
		if errors.Is(err, client.ErrClosed) && client.EndsSession(line) {
			return 0
		}
		logger.Warn("session failed", "addr", addr, "error", err)
		fmt.Fprintln(stderr, client.ErrCommunication)
		return 1
	}
}

// runServer serves until stop-server or ctx is cancelled.
func runServer(ctx context.Context, srv *server.Server, stderr io.Writer) int {
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "dsh: %v\n", err)
		return 1
	}
	return 0
}
