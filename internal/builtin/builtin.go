// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package builtin holds the commands the shell runs in-process rather than
// by spawning a program.
package builtin

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// Action is what a built-in asks of the executor once it has run.
type Action int

const (
	Executed   Action = iota // ran; nothing further to do
	Exit                     // leave the shell or close the connection
	StopServer               // stop accepting connections
	ShowRC                   // printed the last return code
)

func (a Action) String() string {
	switch a {
	case Executed:
		return "executed"
	case Exit:
		return "exit"
	case StopServer:
		return "stop-server"
	case ShowRC:
		return "show-rc"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Env is what a built-in sees while it runs: the session it belongs to and
// the streams for its position in the pipeline.
type Env struct {
	Session *Session
	Fs      afero.Fs
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Builtin is a command executed inside the shell.
type Builtin interface {
	Name() string
	Description() string

	// Run executes the command synchronously and returns the action for
	// the executor along with an exit status.
	Run(env *Env, args []string) (Action, int)
}

// Func adapts a plain function to the Builtin interface.
type Func struct {
	name string
	desc string
	fn   func(env *Env, args []string) (Action, int)
}

// NewFunc returns a Builtin backed by fn.
func NewFunc(name, desc string, fn func(env *Env, args []string) (Action, int)) *Func {
	return &Func{name: name, desc: desc, fn: fn}
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Description() string { return f.desc }

func (f *Func) Run(env *Env, args []string) (Action, int) {
	return f.fn(env, args)
}

// Registry maps names to built-ins. Matching is exact and case-sensitive.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Builtin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]Builtin)}
}

// Local returns the built-ins available at an interactive prompt.
func Local() *Registry {
	r := NewRegistry()
	r.Register(exitCmd)
	r.Register(cdCmd)
	r.Register(dragonCmd)
	r.Register(rcCmd)
	return r
}

// Remote returns the built-ins available to network clients. It adds
// stop-server to the local set.
func Remote() *Registry {
	r := Local()
	r.Register(stopServerCmd)
	return r
}

// Register adds or replaces a built-in.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds[b.Name()] = b
}

// Lookup returns the built-in called name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.cmds[name]
	return b, ok
}

// All returns every built-in sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.cmds))
	for _, b := range r.cmds {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}
