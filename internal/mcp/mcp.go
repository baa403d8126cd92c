// Package mcp exposes the shell to agents as a Model Context Protocol tool
// served over stdio.
package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcelocantos/dsh/internal/builtin"
	"github.com/marcelocantos/dsh/internal/pipeline"
	"github.com/marcelocantos/dsh/internal/shell"
)

// ToolName is the name agents call.
const ToolName = "run"

// Tool runs command lines on behalf of an agent. All calls share one
// session, so cd persists between them.
type Tool struct {
	shell *shell.Shell
	sess  *builtin.Session
}

// NewTool creates a tool whose session starts in dir.
func NewTool(sh *shell.Shell, dir string) *Tool {
	return &Tool{
		shell: sh,
		sess:  builtin.NewSession(uuid.NewString(), dir, false),
	}
}

// Session returns the tool's shell session.
func (t *Tool) Session() *builtin.Session {
	return t.sess
}

// Definition describes the tool to clients.
func (t *Tool) Definition() mcpgo.Tool {
	return mcpgo.NewTool(ToolName,
		mcpgo.WithDescription("Run one shell command line. Stages may be joined with | and "+
			"the line may redirect input with < and output with > or >>. "+
			"Built-ins: cd, rc, dragon. Returns combined output and the exit status."),
		mcpgo.WithString("command",
			mcpgo.Required(),
			mcpgo.Description("Command line to run, for example: ls -l | wc -l"),
		),
	)
}

// Handle executes the command argument of req.
func (t *Tool) Handle(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	line, err := req.RequireString("command")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	p, err := pipeline.Parse(line)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	if p.Contains("exit") || p.Contains("stop-server") {
		return mcpgo.NewToolResultError("error: exit and stop-server are not available to agents"), nil
	}

	var out lockedBuffer
	res, err := t.shell.RunLine(ctx, t.sess, line, pipeline.Streams{Stdout: &out, Stderr: &out})
	if err != nil {
		return mcpgo.NewToolResultError(out.String()), nil
	}

	return &mcpgo.CallToolResult{
		Content: []mcpgo.Content{
			mcpgo.NewTextContent(out.String()),
			mcpgo.NewTextContent(fmt.Sprintf("exit status: %d", res.Code)),
		},
	}, nil
}

// NewServer returns an MCP server carrying the run tool.
func NewServer(t *Tool, version string) *server.MCPServer {
	s := server.NewMCPServer("dsh", version, server.WithToolCapabilities(false))
	s.AddTool(t.Definition(), t.Handle)
	return s
}

// ServeStdio serves the tool on standard input and output until the client
// disconnects.
func ServeStdio(sh *shell.Shell, version string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	return server.ServeStdio(NewServer(NewTool(sh, dir), version))
}

// lockedBuffer collects output from concurrently running stages.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
