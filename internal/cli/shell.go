package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tabledb"
)

const shellPrompt = "$ "

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	var prompt bool

	cmd := &cobra.Command{
		Use:   "shell <table>",
		Short: "Run commands from stdin in one transaction",
		Long: `Read commands from stdin and run them against a single transaction.

Commands are separated by newlines or ';':
  put <key> <row>   get <key>   remove <key>   list   size
  commit            rollback    exit

Changes stay private to the shell until "commit". Uncommitted changes are
dropped on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTable(rootOpts, cmd, args[0], func(t *tabledb.Table) error {
				s, err := newSession(t, cmd.OutOrStdout())
				if err != nil {
					return WrapExitError(ExitCommandError, "cannot begin transaction", err)
				}
				sh := &shell{session: s, errOut: cmd.ErrOrStderr(), prompt: prompt}
				return sh.run(cmd.InOrStdin())
			})
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "print a prompt before each line")

	return cmd
}

type shell struct {
	*session
	errOut io.Writer
	prompt bool
	failed int
}

// run executes every command read from in until exit or end of input. It
// fails if any command failed.
func (sh *shell) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for {
		if sh.prompt {
			fmt.Fprint(sh.out, shellPrompt)
		}
		if !scanner.Scan() {
			break
		}
		if sh.execLine(scanner.Text()) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "read commands", err)
	}

	if n := sh.tx.UncommittedChanges(); n > 0 {
		sh.tx.Table().Logger().Warn("uncommitted changes dropped", "table", sh.tx.Table().Name(), "changes", n)
	}
	if sh.failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d command(s) failed", sh.failed))
	}
	return nil
}

// execLine runs the ';' separated commands of one line and reports whether
// exit was reached.
func (sh *shell) execLine(line string) bool {
	for _, c := range splitCommands(line) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		name, rest, _ := strings.Cut(c, " ")
		if name == "exit" {
			return true
		}
		if err := sh.exec(name, strings.TrimSpace(rest)); err != nil {
			fmt.Fprintf(sh.errOut, "%s: %v\n", name, err)
			sh.failed++
		}
	}
	return false
}

// splitCommands splits line at ';' except inside a <row> element, whose
// escaped text may contain entity references such as &amp;.
func splitCommands(line string) []string {
	var cmds []string
	start, inRow := 0, false
	for i := 0; i < len(line); i++ {
		switch {
		case strings.HasPrefix(line[i:], "<row>"):
			inRow = true
		case strings.HasPrefix(line[i:], "</row>"):
			inRow = false
		case line[i] == ';' && !inRow:
			cmds = append(cmds, line[start:i])
			start = i + 1
		}
	}
	return append(cmds, line[start:])
}

func (sh *shell) exec(name, rest string) error {
	args := strings.Fields(rest)
	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("wrong number of arguments")
		}
		return nil
	}

	switch name {
	case "put":
		// the row may contain spaces: everything after the key is the row
		key, text, _ := strings.Cut(rest, " ")
		text = strings.TrimSpace(text)
		if key == "" || text == "" {
			return fmt.Errorf("wrong number of arguments")
		}
		return sh.put(key, text)
	case "get":
		if err := want(1); err != nil {
			return err
		}
		return sh.get(args[0])
	case "remove":
		if err := want(1); err != nil {
			return err
		}
		return sh.remove(args[0])
	case "list":
		if err := want(0); err != nil {
			return err
		}
		return sh.list()
	case "size":
		if err := want(0); err != nil {
			return err
		}
		return sh.size()
	case "commit":
		if err := want(0); err != nil {
			return err
		}
		return sh.commit()
	case "rollback":
		if err := want(0); err != nil {
			return err
		}
		sh.rollback()
		return nil
	default:
		return fmt.Errorf("command not found")
	}
}
