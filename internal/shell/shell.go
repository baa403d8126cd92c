// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package shell runs command lines. The local prompt, the remote session
// handler and the MCP tool all go through Shell.RunLine.
package shell

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/marcelocantos/dsh/internal/audit"
	"github.com/marcelocantos/dsh/internal/builtin"
	"github.com/marcelocantos/dsh/internal/logging"
	"github.com/marcelocantos/dsh/internal/pipeline"
	"github.com/marcelocantos/dsh/internal/rules"
)

// Options configure a Shell. Only Builtins is required.
type Options struct {
	Builtins *builtin.Registry
	Fs       afero.Fs
	Guard    *rules.RuleSet
	Audit    *audit.Logger
	Log      *logging.Logger
	Color    bool // colourise warnings and errors
}

// Shell parses, guards, executes and records command lines.
type Shell struct {
	exec  *pipeline.Executor
	guard *rules.RuleSet
	audit *audit.Logger
	log   *logging.Logger

	warnColor *color.Color
	errColor  *color.Color
}

// New creates a shell.
func New(opts Options) *Shell {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	s := &Shell{
		exec:      pipeline.NewExecutor(opts.Builtins, opts.Fs),
		guard:     opts.Guard,
		audit:     opts.Audit,
		log:       opts.Log,
		warnColor: color.New(color.FgYellow),
		errColor:  color.New(color.FgRed, color.Bold),
	}
	if opts.Color {
		s.warnColor.EnableColor()
		s.errColor.EnableColor()
	} else {
		s.warnColor.DisableColor()
		s.errColor.DisableColor()
	}
	return s
}

// Executor exposes the underlying pipeline executor.
func (s *Shell) Executor() *pipeline.Executor {
	return s.exec
}

// RunLine executes one command line in sess.
//
// Parse and guard failures are reported on streams.Stderr before anything
// is started, and returned as the error alongside a completed result. The
// error is also non-nil for resource failures during execution. Problems
// confined to one stage are reported by the executor and do not produce an
// error here.
func (s *Shell) RunLine(ctx context.Context, sess *builtin.Session, line string, streams pipeline.Streams) (pipeline.Result, error) {
	start := time.Now()

	p, err := pipeline.Parse(line)
	if err != nil {
		if pipeline.IsWarning(err) {
			s.warnColor.Fprintln(stderr(streams), err.Error())
			return pipeline.CompletedWith(0), err
		}
		s.errColor.Fprintln(stderr(streams), err.Error())
		return pipeline.CompletedWith(1), err
	}

	argvs := make([][]string, len(p.Commands))
	for i, c := range p.Commands {
		argvs[i] = c.Argv()
	}
	if err := s.guard.CheckAll(argvs); err != nil {
		err = fmt.Errorf("error: %w", err)
		s.errColor.Fprintln(stderr(streams), err.Error())
		s.record(sess, p, pipeline.CompletedWith(1), err, time.Since(start))
		return pipeline.CompletedWith(1), err
	}

	res, err := s.exec.Run(ctx, p, sess, streams)
	duration := time.Since(start)
	if err != nil {
		s.errColor.Fprintln(stderr(streams), err.Error())
		s.log.Error("pipeline failed", "session", sess.ID, "line", p.Line, "error", err)
		res = pipeline.CompletedWith(1)
	}

	s.log.Debug("pipeline finished",
		"session", sess.ID,
		"stages", len(p.Commands),
		"result", res.Kind.String(),
		"code", res.Code,
		"duration", duration)
	s.record(sess, p, res, err, duration)
	return res, err
}

func (s *Shell) record(sess *builtin.Session, p *pipeline.Pipeline, res pipeline.Result, err error, d time.Duration) {
	if s.audit == nil {
		return
	}
	rec := audit.Record{
		Session:  sess.ID,
		Remote:   sess.Peer,
		Line:     p.Line,
		Commands: p.Names(),
		Result:   res.Kind.String(),
		ExitCode: res.Code,
		Duration: d,
		Cwd:      sess.Dir(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if logErr := s.audit.Log(rec); logErr != nil {
		s.log.Warn("audit log write failed", "error", logErr)
	}
}

func stderr(streams pipeline.Streams) io.Writer {
	if streams.Stderr == nil {
		return io.Discard
	}
	return streams.Stderr
}
