package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"tabledb"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Root       string
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the tablectl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tablectl",
		Short: "tablectl - inspect and edit sharded tables",
		Long: `Manage tables stored as a 16x16 grid of bucket files.

Every table lives in its own directory under the root. Single commands
commit at once; use "shell" to group changes into one transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "directory holding the tables (default \".\")")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSizeCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

// openProvider loads the config, sets up logging to the command's stderr and
// opens the table root. Callers close the provider.
func openProvider(opts *RootOptions, cmd *cobra.Command) (*tabledb.Provider, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "bad config", err)
	}
	level, err := cfg.level(opts.Verbose)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "bad config", err)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))

	p, err := tabledb.OpenProvider(cfg.providerConfig(opts, logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot open table root", err)
	}
	return p, nil
}

// withTable runs fn against the named table and closes everything after.
func withTable(opts *RootOptions, cmd *cobra.Command, name string, fn func(t *tabledb.Table) error) error {
	p, err := openProvider(opts, cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	t, err := p.GetTable(name)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot open table "+name, err)
	}
	return fn(t)
}
