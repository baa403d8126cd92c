package rules

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Hardcoded returns the guard rules that apply whatever the configuration.
func Hardcoded() []CheckFunc {
	return []CheckFunc{
		checkRmCatastrophic,
	}
}

// checkRmCatastrophic blocks recursive removal of root, home, or the
// current or parent directory.
func checkRmCatastrophic(exe string, args []string) error {
	if filepath.Base(exe) != "rm" {
		return nil
	}
	if !hasAnyFlag(args, "-r", "-R", "--recursive") {
		return nil
	}
	for _, arg := range args {
		if arg == "" || arg[0] == '-' {
			continue
		}
		cleaned := filepath.Clean(arg)
		if cleaned == "/" || cleaned == "." || cleaned == ".." ||
			arg == "~" || strings.HasPrefix(arg, "~/") && filepath.Clean(arg[1:]) == "/" {
			return fmt.Errorf("refusing to recursively remove %q", arg)
		}
	}
	return nil
}
