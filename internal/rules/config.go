package rules

import "fmt"

// CommandRuleConfig is one executable's guard rules from YAML config.
type CommandRuleConfig struct {
	RejectFlags []string                 `yaml:"reject_flags"`
	Subcommands map[string]SubRuleConfig `yaml:"subcommands"`
}

// SubRuleConfig holds rules for one subcommand, such as "push" for git.
type SubRuleConfig struct {
	RejectFlags []string `yaml:"reject_flags"`
}

// Compile turns configured rules for every executable into a RuleSet on
// top of the hardcoded rules.
func Compile(cfg map[string]CommandRuleConfig) *RuleSet {
	rs := NewRuleSet(Hardcoded()...)
	for exe, rule := range cfg {
		for _, fn := range CompileCommandRule(exe, rule) {
			rs.AddConfig(fn)
		}
	}
	return rs
}

// CompileCommandRule turns a single executable's config into CheckFuncs.
func CompileCommandRule(exe string, cfg CommandRuleConfig) []CheckFunc {
	var fns []CheckFunc

	if len(cfg.RejectFlags) > 0 {
		flags := cfg.RejectFlags
		fns = append(fns, func(name string, args []string) error {
			if name != exe {
				return nil
			}
			if hasAnyFlag(args, flags...) {
				return fmt.Errorf("flag rejected by guard rule")
			}
			return nil
		})
	}

	for sub, subRule := range cfg.Subcommands {
		if len(subRule.RejectFlags) == 0 {
			continue
		}
		flags := subRule.RejectFlags
		fns = append(fns, func(name string, args []string) error {
			if name != exe || len(args) == 0 || args[0] != sub {
				return nil
			}
			if hasAnyFlag(args[1:], flags...) {
				return fmt.Errorf("%s: flag rejected by guard rule", sub)
			}
			return nil
		})
	}

	return fns
}
