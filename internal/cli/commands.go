package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tabledb"
	"tabledb/row"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <table> <type>...",
		Short: "Create an empty table",
		Long: `Create an empty table with the given column types.

Types: int, long, byte, float, double, boolean, String.

Example:
  tablectl create users int String double`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := row.ParseSchema(args[1:])
			if err != nil {
				return WrapExitError(ExitCommandError, "bad column types", err)
			}
			p, err := openProvider(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if _, err := p.CreateTable(args[0], schema); err != nil {
				if errors.Is(err, tabledb.ErrTableExists) {
					return WrapExitError(ExitFailure, "cannot create table", err)
				}
				return WrapExitError(ExitCommandError, "cannot create table", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created")
			return nil
		},
	}
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Delete a table and all its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProvider(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.RemoveTable(args[0]); err != nil {
				if errors.Is(err, tabledb.ErrTableNotFound) {
					return WrapExitError(ExitFailure, "cannot drop table", err)
				}
				return WrapExitError(ExitCommandError, "cannot drop table", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dropped")
			return nil
		},
	}
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables under the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProvider(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			names, err := p.TableNames()
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot list tables", err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// runOnce runs fn in a fresh transaction on the named table and commits it.
func runOnce(opts *RootOptions, cmd *cobra.Command, table string, fn func(s *session) error) error {
	return withTable(opts, cmd, table, func(t *tabledb.Table) error {
		s, err := newSession(t, cmd.OutOrStdout())
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot begin transaction", err)
		}
		if err := fn(s); err != nil {
			return WrapExitError(ExitFailure, cmd.Name()+" failed", err)
		}
		if s.tx.UncommittedChanges() == 0 {
			return nil
		}
		if _, err := s.tx.Commit(); err != nil {
			return WrapExitError(ExitFailure, "commit failed", err)
		}
		return nil
	})
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <table> <key> <row>",
		Short: "Store a row and commit",
		Long: `Store a row under key and commit at once.

The row is written in XML, one <col> per column and <null/> for nulls:
  tablectl put users alice '<row><col>1</col><col>Alice</col><null/></row>'`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd, args[0], func(s *session) error {
				return s.put(args[1], strings.Join(args[2:], " "))
			})
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <key>",
		Short: "Print the row stored under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd, args[0], func(s *session) error {
				return s.get(args[1])
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <table> <key>",
		Short: "Delete the row stored under key and commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd, args[0], func(s *session) error {
				return s.remove(args[1])
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <table>",
		Short: "Print every key of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd, args[0], func(s *session) error {
				return s.list()
			})
		},
	}
}

// NewSizeCommand creates the size command.
func NewSizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "size <table>",
		Short: "Print the number of rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd, args[0], func(s *session) error {
				return s.size()
			})
		},
	}
}
