package pipeline

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseSingleCommand(t *testing.T) {
	p, err := Parse("grep -r TODO src/")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(p.Commands))
	}
	if p.Commands[0].Exe != "grep" {
		t.Errorf("expected exe grep, got %s", p.Commands[0].Exe)
	}
	if want := []string{"-r", "TODO", "src/"}; !reflect.DeepEqual(p.Commands[0].Args, want) {
		t.Errorf("args = %q, want %q", p.Commands[0].Args, want)
	}
}

func TestParsePipeline(t *testing.T) {
	p, err := Parse("grep -r TODO src/ | sort | uniq -c | head -20")
	if err != nil {
		t.Fatal(err)
	}
	expected := []struct {
		name string
		argc int
	}{
		{"grep", 3},
		{"sort", 0},
		{"uniq", 1},
		{"head", 1},
	}
	if len(p.Commands) != len(expected) {
		t.Fatalf("expected %d commands, got %d", len(expected), len(p.Commands))
	}
	for i, e := range expected {
		if p.Commands[i].Exe != e.name {
			t.Errorf("command %d: expected %s, got %s", i, e.name, p.Commands[i].Exe)
		}
		if len(p.Commands[i].Args) != e.argc {
			t.Errorf("command %d: expected %d args, got %d", i, e.argc, len(p.Commands[i].Args))
		}
	}
}

func TestParseWhitespaceInsensitive(t *testing.T) {
	a, err := Parse("ls -l")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("   ls     -l   ")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Commands[0].Argv(), b.Commands[0].Argv()) {
		t.Errorf("argv differ: %q vs %q", a.Commands[0].Argv(), b.Commands[0].Argv())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"blank line", "   ", ErrNoCommands},
		{"empty middle stage", "ls | | wc", ErrEmptyCommand},
		{"empty trailing stage", "ls |", ErrEmptyCommand},
		{"empty leading stage", "| wc", ErrEmptyCommand},
		{"too many stages", strings.Repeat("cat | ", MaxCommands) + "cat", ErrTooManyCommands},
		{"exe too long", strings.Repeat("x", MaxExeLen+1), ErrCommandTooLong},
		{"args too long", "echo " + strings.Repeat("a", MaxArgLen+1), ErrCommandTooLong},
		{"args too long cumulative", "echo " + strings.Repeat("aaaaaaaaaa ", MaxArgLen/10+1), ErrCommandTooLong},
		{"input missing path", "sort <", ErrRedirection},
		{"output missing path", "ls >", ErrRedirection},
		{"append missing path", "ls >>", ErrRedirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.line)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.line, err, tt.want)
			}
			if p != nil {
				t.Errorf("expected nil pipeline on error")
			}
		})
	}
}

func TestParseLimits(t *testing.T) {
	line := strings.Repeat("cat | ", MaxCommands-1) + "cat"
	p, err := Parse(line)
	if err != nil {
		t.Fatalf("%d stages should be accepted: %v", MaxCommands, err)
	}
	if len(p.Commands) != MaxCommands {
		t.Errorf("got %d commands", len(p.Commands))
	}

	if _, err := Parse(strings.Repeat("x", MaxExeLen)); err != nil {
		t.Errorf("exe of exactly %d chars should be accepted: %v", MaxExeLen, err)
	}
	if _, err := Parse("echo " + strings.Repeat("a", MaxArgLen)); err != nil {
		t.Errorf("args of exactly %d chars should be accepted: %v", MaxArgLen, err)
	}
}

func TestLimitErrorMessage(t *testing.T) {
	_, err := Parse(strings.Repeat("a|", MaxCommands) + "a")
	if got, want := err.Error(), "error: piping limited to 8 commands"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	if IsWarning(err) {
		t.Error("limit error is not a warning")
	}
	if _, err := Parse(""); !IsWarning(err) {
		t.Errorf("blank line should be a warning, got %v", err)
	}
}

func TestParseRedirects(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		firstArgs []string
		lastArgs  []string
		in, out   string
		appendOut bool
	}{
		{
			name: "input", line: "sort -r < in.txt",
			firstArgs: []string{"-r"}, lastArgs: []string{"-r"}, in: "in.txt",
		},
		{
			name: "output", line: "ls -l > out.txt",
			firstArgs: []string{"-l"}, lastArgs: []string{"-l"}, out: "out.txt",
		},
		{
			name: "append", line: "echo hi >> log.txt",
			firstArgs: []string{"hi"}, lastArgs: []string{"hi"}, out: "log.txt", appendOut: true,
		},
		{
			name: "both on one command", line: "sort < in.txt > out.txt",
			firstArgs: nil, lastArgs: nil, in: "in.txt", out: "out.txt",
		},
		{
			name: "rest of line dropped", line: "cat < in.txt extra words",
			firstArgs: nil, lastArgs: nil, in: "in.txt",
		},
		{
			name: "across pipeline", line: "sort < in.txt | uniq -c > out.txt",
			firstArgs: nil, lastArgs: []string{"-c"}, in: "in.txt", out: "out.txt",
		},
		{
			name: "input ignored after first", line: "echo x | cat < in.txt",
			firstArgs: []string{"x"}, lastArgs: []string{"<", "in.txt"},
		},
		{
			name: "output ignored before last", line: "echo x > out.txt | cat",
			firstArgs: []string{"x", ">", "out.txt"}, lastArgs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.line)
			if err != nil {
				t.Fatal(err)
			}
			first, last := p.Commands[0], p.Commands[len(p.Commands)-1]
			if len(first.Args) != len(tt.firstArgs) || (len(tt.firstArgs) > 0 && !reflect.DeepEqual(first.Args, tt.firstArgs)) {
				t.Errorf("first args = %q, want %q", first.Args, tt.firstArgs)
			}
			if len(last.Args) != len(tt.lastArgs) || (len(tt.lastArgs) > 0 && !reflect.DeepEqual(last.Args, tt.lastArgs)) {
				t.Errorf("last args = %q, want %q", last.Args, tt.lastArgs)
			}
			if first.InputFile != tt.in {
				t.Errorf("input = %q, want %q", first.InputFile, tt.in)
			}
			if last.OutputFile != tt.out {
				t.Errorf("output = %q, want %q", last.OutputFile, tt.out)
			}
			if last.Append != tt.appendOut {
				t.Errorf("append = %v, want %v", last.Append, tt.appendOut)
			}
		})
	}
}

func TestPipelineNamesAndContains(t *testing.T) {
	p, err := Parse("echo exit | stop-server | wc -l")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"echo", "stop-server", "wc"}; !reflect.DeepEqual(p.Names(), want) {
		t.Errorf("Names() = %q, want %q", p.Names(), want)
	}
	if p.Contains("exit") {
		t.Error("exit appears only as an argument")
	}
	if !p.Contains("stop-server") {
		t.Error("expected stop-server stage")
	}
}
