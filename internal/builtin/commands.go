package builtin

import (
	"fmt"
	"path/filepath"
)

var exitCmd = NewFunc("exit", "leave the shell or close the connection",
	func(*Env, []string) (Action, int) {
		return Exit, 0
	})

var stopServerCmd = NewFunc("stop-server", "stop the server once connected clients finish",
	func(*Env, []string) (Action, int) {
		return StopServer, 0
	})

var rcCmd = NewFunc("rc", "print the exit status of the last command",
	func(env *Env, _ []string) (Action, int) {
		fmt.Fprintf(env.Stdout, "%d\n", env.Session.LastStatus())
		return ShowRC, 0
	})

// cd only acts when given exactly one argument. Anything else is ignored.
var cdCmd = NewFunc("cd", "change the session's working directory",
	func(env *Env, args []string) (Action, int) {
		if len(args) != 1 {
			return Executed, 0
		}
		dir := args[0]
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(env.Session.Dir(), dir)
		}
		dir = filepath.Clean(dir)

		info, err := env.Fs.Stat(dir)
		if err != nil {
			fmt.Fprintf(env.Stderr, "cd: %s: No such file or directory\n", args[0])
			return Executed, 1
		}
		if !info.IsDir() {
			fmt.Fprintf(env.Stderr, "cd: %s: Not a directory\n", args[0])
			return Executed, 1
		}
		env.Session.SetDir(dir)
		return Executed, 0
	})
