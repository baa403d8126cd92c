// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package cli is the dsh command line: the interactive prompt, client and
// server modes, and the audit and mcp subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/dsh/internal/audit"
	"github.com/marcelocantos/dsh/internal/builtin"
	"github.com/marcelocantos/dsh/internal/config"
	"github.com/marcelocantos/dsh/internal/ipc"
	"github.com/marcelocantos/dsh/internal/logging"
	"github.com/marcelocantos/dsh/internal/mcp"
	"github.com/marcelocantos/dsh/internal/server"
	"github.com/marcelocantos/dsh/internal/shell"
)

// Execute runs dsh with the process arguments and returns the exit status.
func Execute(version string) int {
	return run(version, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(version string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o := &options{fs: afero.NewOsFs()}
	root := newRootCmd(o, version)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "dsh: %v\n", err)
		return 1
	}
	return o.code
}

type options struct {
	fs afero.Fs

	configPath string
	logLevel   string
	client     bool
	server     bool
	iface      string
	port       int
	threaded   bool
	auditLines int

	code int
}

func newRootCmd(o *options, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "dsh",
		Short:         "A small shell with pipelines, redirection and a remote mode",
		Long:          helpText(),
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			switch {
			case o.server:
				return o.serve(cmd, cfg, logger)
			case o.client:
				return o.connect(cmd, cfg, logger)
			default:
				return o.local(cmd, cfg, logger)
			}
		},
	}

	f := root.Flags()
	f.BoolVarP(&o.client, "client", "c", false, "connect to a dsh server")
	f.BoolVarP(&o.server, "server", "s", false, "serve remote clients")
	f.StringVarP(&o.iface, "interface", "i", "", "interface to serve on or host to connect to, optionally with :port")
	f.IntVarP(&o.port, "port", "p", 0, fmt.Sprintf("TCP port (default %d)", ipc.DefaultPort))
	f.BoolVarP(&o.threaded, "threaded", "x", false, "serve each connection on its own goroutine")
	root.MarkFlagsMutuallyExclusive("client", "server")

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "config file (default ~/.config/dsh/config.yaml)")
	pf.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newAuditCmd(o), newBuiltinsCmd(o), newMCPCmd(o, version))
	return root
}

func newAuditCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the audit log hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			o.code = RunAuditVerify(cmd.OutOrStdout(), o.fs, cfg.Audit.Path)
			return nil
		},
	})
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			o.code = RunAuditTail(cmd.OutOrStdout(), o.fs, cfg.Audit.Path, o.auditLines)
			return nil
		},
	}
	tail.Flags().IntVarP(&o.auditLines, "lines", "n", 20, "number of entries")
	cmd.AddCommand(tail)
	return cmd
}

func newBuiltinsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "builtins",
		Short: "List the built-in commands",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			o.code = RunList(cmd.OutOrStdout())
		},
	}
}

func newMCPCmd(o *options, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the shell as an MCP tool on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := o.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return mcp.ServeStdio(o.shell(cfg, builtin.Local(), false, logger), version)
		},
	}
}

// config loads the config file and applies command-line overrides.
func (o *options) config() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFs(o.fs, path)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.iface != "" {
		if host, port, err := ipc.ParseAddress(o.iface, cfg.Server.Interface, cfg.Server.Port); err == nil {
			cfg.Server.Interface, cfg.Server.Port = host, port
		} else {
			cfg.Server.Interface = o.iface
		}
	}
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
	if o.threaded {
		cfg.Server.Threaded = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func (o *options) load() (*config.Config, *logging.Logger, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// shell assembles a shell from cfg. An audit log that cannot be opened is
// reported and skipped.
func (o *options) shell(cfg *config.Config, builtins *builtin.Registry, colored bool, logger *logging.Logger) *shell.Shell {
	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		var err error
		auditLog, err = audit.NewLogger(o.fs, cfg.Audit.Path)
		if err != nil {
			logger.Warn("audit log disabled", "path", cfg.Audit.Path, "error", err)
			auditLog = nil
		}
	}
	return shell.New(shell.Options{
		Builtins: builtins,
		Fs:       o.fs,
		Guard:    cfg.GuardRules(),
		Audit:    auditLog,
		Log:      logger,
		Color:    colored,
	})
}

func (o *options) local(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger) error {
	stdin, stdout, stderr := cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()
	lines, err := newLineReader(cfg.Shell.Prompt, cfg.Shell.HistoryFile, stdin, stdout)
	if err != nil {
		return err
	}
	defer lines.Close()

	// ^C belongs to the foreground children.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	sh := o.shell(cfg, builtin.Local(), cfg.Shell.Color && !color.NoColor, logger)
	o.code = runLocal(context.Background(), sh, lines, stdin, stdout, stderr)
	return nil
}

func (o *options) connect(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger) error {
	lines, err := newLineReader(cfg.Shell.Prompt, cfg.Shell.HistoryFile, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer lines.Close()

	addr := ipc.ClientAddress(cfg.Server.Interface, cfg.Server.Port)
	o.code = runClient(cmd.Context(), addr, lines, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	return nil
}

func (o *options) serve(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, o.shell(cfg, builtin.Remote(), false, logger), logger)
	o.code = runServer(ctx, srv, cmd.ErrOrStderr())
	return nil
}
