package cli

import (
	"fmt"
	"strings"

	"github.com/marcelocantos/dsh/internal/ipc"
	"github.com/marcelocantos/dsh/internal/pipeline"
)

// helpText is the long description shown by dsh --help.
func helpText() string {
	var b strings.Builder
	fmt.Fprintln(&b, "dsh is a small shell with pipelines, redirection and a remote mode.")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "modes:")
	fmt.Fprintln(&b, "  dsh                          interactive prompt")
	fmt.Fprintf(&b, "  dsh -s [-i iface] [-p port]  serve remote clients (default %s:%d)\n", ipc.DefaultServerInterface, ipc.DefaultPort)
	fmt.Fprintf(&b, "  dsh -c [-i host] [-p port]   connect to a server (default %s:%d)\n", ipc.DefaultClientInterface, ipc.DefaultPort)
	fmt.Fprintln(&b, "  dsh mcp                      serve the shell as an MCP tool on stdio")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "operators:")
	fmt.Fprintf(&b, "  %-3s pipe (stdout → stdin), at most %d commands\n", pipeline.OpPipe, pipeline.MaxCommands)
	fmt.Fprintf(&b, "  %-3s redirect stdin of the first command from a file\n", pipeline.OpRedirectIn)
	fmt.Fprintf(&b, "  %-3s redirect stdout of the last command to a file\n", pipeline.OpRedirectOut)
	fmt.Fprintf(&b, "  %-3s append stdout of the last command to a file\n", pipeline.OpAppendOut)
	fmt.Fprintln(&b)
	fmt.Fprint(&b, "run 'dsh builtins' to list the built-in commands.")
	return b.String()
}
