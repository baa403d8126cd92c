package pipeline

import "strings"

// Limits enforced while building a pipeline.
const (
	MaxExeLen   = 64  // longest executable name
	MaxArgLen   = 256 // cumulative length of all argument tokens
	MaxCommands = 8   // most stages in one pipeline
)

// Operators recognised on the raw command line.
const (
	OpPipe        = "|"
	OpRedirectIn  = "<"
	OpRedirectOut = ">"
	OpAppendOut   = ">>"
)

// Command is one stage of a pipeline.
type Command struct {
	Exe  string   // executable or built-in name
	Args []string // arguments, redirection tokens already stripped

	InputFile  string // stdin redirect (first stage only), empty if none
	OutputFile string // stdout redirect (last stage only), empty if none
	Append     bool   // OutputFile is opened for append rather than truncate
}

// Argv returns the full argument vector, executable first.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Exe)
	return append(argv, c.Args...)
}

func (c Command) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(c.Argv(), " "))
	if c.InputFile != "" {
		b.WriteString(" < " + c.InputFile)
	}
	if c.OutputFile != "" {
		if c.Append {
			b.WriteString(" >> ")
		} else {
			b.WriteString(" > ")
		}
		b.WriteString(c.OutputFile)
	}
	return b.String()
}

// Pipeline is cmd1 | cmd2 | ... | cmdN. It always holds at least one command.
type Pipeline struct {
	Commands []Command
	Line     string // trimmed source text
}

// Names returns the executable name of every stage.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		names[i] = c.Exe
	}
	return names
}

// Contains reports whether any stage runs the executable name.
func (p *Pipeline) Contains(name string) bool {
	for _, c := range p.Commands {
		if c.Exe == name {
			return true
		}
	}
	return false
}
