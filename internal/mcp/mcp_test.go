package mcp

import (
	"context"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/dsh/internal/builtin"
	"github.com/marcelocantos/dsh/internal/config"
	"github.com/marcelocantos/dsh/internal/shell"
)

func newTool(t *testing.T) *Tool {
	t.Helper()
	sh := shell.New(shell.Options{
		Builtins: builtin.Local(),
		Guard:    config.DefaultConfig().GuardRules(),
	})
	return NewTool(sh, t.TempDir())
}

func call(t *testing.T, tool *Tool, args map[string]any) *mcpgo.CallToolResult {
	t.Helper()
	var req mcpgo.CallToolRequest
	req.Params.Name = ToolName
	req.Params.Arguments = args
	res, err := tool.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func texts(t *testing.T, res *mcpgo.CallToolResult) []string {
	t.Helper()
	var out []string
	for _, c := range res.Content {
		tc, ok := c.(mcpgo.TextContent)
		require.True(t, ok, "content %T is not text", c)
		out = append(out, tc.Text)
	}
	return out
}

func TestRunPipeline(t *testing.T) {
	tool := newTool(t)
	res := call(t, tool, map[string]any{"command": "printf 'b\\na\\n' | sort"})
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"a\nb\n", "exit status: 0"}, texts(t, res))
}

func TestRunReportsExitStatus(t *testing.T) {
	tool := newTool(t)
	res := call(t, tool, map[string]any{"command": "sh -c 'echo oops >&2; exit 4'"})
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"oops\n", "exit status: 4"}, texts(t, res))
}

func TestRunSessionPersists(t *testing.T) {
	tool := newTool(t)
	call(t, tool, map[string]any{"command": "cd /"})
	assert.Equal(t, "/", tool.Session().Dir())

	res := call(t, tool, map[string]any{"command": "pwd"})
	assert.Equal(t, "/\n", texts(t, res)[0])
}

func TestRunParseErrorIsToolError(t *testing.T) {
	tool := newTool(t)
	res := call(t, tool, map[string]any{"command": "ls |"})
	assert.True(t, res.IsError)
	assert.Equal(t, []string{"error: piping is improperly formatted"}, texts(t, res))
}

func TestRunRefusesSessionControl(t *testing.T) {
	tool := newTool(t)
	for _, line := range []string{"exit", "echo hi | stop-server"} {
		res := call(t, tool, map[string]any{"command": line})
		assert.True(t, res.IsError, line)
	}
}

func TestRunGuardRejection(t *testing.T) {
	tool := newTool(t)
	res := call(t, tool, map[string]any{"command": "rm -rf /"})
	assert.True(t, res.IsError)
	assert.Contains(t, texts(t, res)[0], `refusing to recursively remove "/"`)
}

func TestRunMissingCommand(t *testing.T) {
	tool := newTool(t)
	res := call(t, tool, map[string]any{})
	assert.True(t, res.IsError)
}

func TestServerRegistersTool(t *testing.T) {
	tool := newTool(t)
	require.NotNil(t, NewServer(tool, "test"))

	def := tool.Definition()
	assert.Equal(t, ToolName, def.Name)
	assert.Contains(t, def.InputSchema.Required, "command")
}
