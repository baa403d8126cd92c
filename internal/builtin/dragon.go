package builtin

import (
	_ "embed"
	"io"
)

//go:embed dragon.txt
var dragonArt string

var dragonCmd = NewFunc("dragon", "print a dragon",
	func(env *Env, _ []string) (Action, int) {
		if _, err := io.WriteString(env.Stdout, dragonArt); err != nil {
			return Executed, 1
		}
		return Executed, 0
	})
