package pipeline

import (
	"strings"
)

// Parse builds a pipeline from one raw command line. The line is split on
// the pipe character before tokenizing, so a quoted "|" still separates
// stages. Redirections are resolved on the first and last stages.
//
// A blank line yields ErrNoCommands; a blank stage yields ErrEmptyCommand.
func Parse(line string) (*Pipeline, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrNoCommands
	}

	segments := strings.Split(line, OpPipe)
	if len(segments) > MaxCommands {
		return nil, &LimitError{Max: MaxCommands}
	}

	p := &Pipeline{
		Commands: make([]Command, 0, len(segments)),
		Line:     line,
	}
	for _, seg := range segments {
		cmd, err := BuildCommand(seg)
		if err != nil {
			return nil, err
		}
		p.Commands = append(p.Commands, cmd)
	}

	if err := resolveRedirects(p); err != nil {
		return nil, err
	}
	return p, nil
}

// BuildCommand tokenizes one pipe segment into a command. An empty segment
// yields ErrEmptyCommand.
func BuildCommand(segment string) (Command, error) {
	t := NewTokenizer(segment)
	exe, ok := t.Next()
	if !ok {
		return Command{}, ErrEmptyCommand
	}
	if len(exe) > MaxExeLen {
		return Command{}, ErrCommandTooLong
	}

	cmd := Command{Exe: exe}
	total := 0
	for {
		tok, ok := t.Next()
		if !ok {
			break
		}
		total += len(tok)
		if total > MaxArgLen {
			return Command{}, ErrCommandTooLong
		}
		cmd.Args = append(cmd.Args, tok)
	}
	return cmd, nil
}

// resolveRedirects moves redirection operators out of the argument vectors
// and into the command's file fields. The operator, its path and everything
// after it are dropped. Output is resolved before input so that a single
// command may carry both.
func resolveRedirects(p *Pipeline) error {
	last := &p.Commands[len(p.Commands)-1]
	for i, arg := range last.Args {
		if arg != OpRedirectOut && arg != OpAppendOut {
			continue
		}
		if i+1 >= len(last.Args) {
			return ErrRedirection
		}
		last.OutputFile = last.Args[i+1]
		last.Append = arg == OpAppendOut
		last.Args = last.Args[:i]
		break
	}

	first := &p.Commands[0]
	for i, arg := range first.Args {
		if arg != OpRedirectIn {
			continue
		}
		if i+1 >= len(first.Args) {
			return ErrRedirection
		}
		first.InputFile = first.Args[i+1]
		first.Args = first.Args[:i]
		break
	}
	return nil
}
