package cli

import (
	"fmt"
	"io"

	"github.com/marcelocantos/dsh/internal/builtin"
)

// RunList lists the built-in commands. Those only available to remote
// clients are marked.
func RunList(w io.Writer) int {
	local := builtin.Local()
	for _, b := range builtin.Remote().All() {
		scope := ""
		if _, ok := local.Lookup(b.Name()); !ok {
			scope = " (server only)"
		}
		fmt.Fprintf(w, "%-12s %s%s\n", b.Name(), b.Description(), scope)
	}
	return 0
}
