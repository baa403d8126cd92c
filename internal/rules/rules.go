// Package rules guards command lines before any stage is started.
package rules

import (
	"fmt"
	"strings"
)

// CheckFunc inspects one stage. A non-nil error blocks the whole line.
type CheckFunc func(exe string, args []string) error

// RuleSet holds hardcoded rules, which always run first, followed by rules
// compiled from configuration.
type RuleSet struct {
	hardcoded []CheckFunc
	config    []CheckFunc
}

// NewRuleSet creates a RuleSet with the given hardcoded rules.
func NewRuleSet(hardcoded ...CheckFunc) *RuleSet {
	return &RuleSet{hardcoded: hardcoded}
}

// AddConfig appends a config-driven rule.
func (rs *RuleSet) AddConfig(fn CheckFunc) {
	rs.config = append(rs.config, fn)
}

// Check runs every rule against one stage.
func (rs *RuleSet) Check(exe string, args []string) error {
	if rs == nil {
		return nil
	}
	for _, fn := range rs.hardcoded {
		if err := fn(exe, args); err != nil {
			return err
		}
	}
	for _, fn := range rs.config {
		if err := fn(exe, args); err != nil {
			return err
		}
	}
	return nil
}

// CheckAll runs Check on each argv and prefixes a failure with the
// executable name.
func (rs *RuleSet) CheckAll(argvs [][]string) error {
	for _, argv := range argvs {
		if len(argv) == 0 {
			continue
		}
		if err := rs.Check(argv[0], argv[1:]); err != nil {
			return fmt.Errorf("%s: %w", argv[0], err)
		}
	}
	return nil
}

// hasAnyFlag checks whether any element in args matches one of the given flags.
// It handles:
//   - Exact match: "-f" matches "-f"
//   - Combined short flags: "-rf" matches "-r" and "-f"
//   - Short flag with value: "-j4" matches "-j"
//   - Long flag with =: "--flag=value" matches "--flag"
func hasAnyFlag(args []string, flags ...string) bool {
	for _, arg := range args {
		if arg == "" || arg[0] != '-' {
			continue
		}
		for _, flag := range flags {
			if arg == flag {
				return true
			}
			if len(flag) == 2 && flag[0] == '-' && flag[1] != '-' &&
				len(arg) > 2 && arg[1] != '-' {
				if strings.ContainsRune(arg[1:], rune(flag[1])) {
					return true
				}
			}
			if len(flag) > 2 && flag[0:2] == "--" && strings.HasPrefix(arg, flag+"=") {
				return true
			}
		}
	}
	return false
}
