// internal/commands/list_commands.go
package nabin

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// commandRow is one line of the 'list commands' table.
type commandRow struct {
	Path  string
	Short string
	Flags []string
}

// commandsCmd prints the command tree with each command's short description.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands",
	Long:  `The 'commands' subcommand prints every nabin command as an indented tree with its description. Use --flags to include each command's own flags.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		withFlags, _ := cmd.Flags().GetBool("flags")
		writeCommandTable(cmd.OutOrStdout(), collectCommands(rootCmd, 0), withFlags)
		return nil
	},
}

func init() {
	commandsCmd.Flags().Bool("flags", false, "show the flags each command defines")
	listCmd.AddCommand(commandsCmd)
}

// collectCommands walks the tree depth-first, skipping help, completion and hidden commands.
func collectCommands(cmd *cobra.Command, depth int) []commandRow {
	row := commandRow{
		Path:  strings.Repeat("  ", depth) + cmd.CommandPath(),
		Short: cmd.Short,
	}
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		row.Flags = append(row.Flags, "--"+f.Name)
	})

	rows := []commandRow{row}
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		rows = append(rows, collectCommands(sub, depth+1)...)
	}
	return rows
}

func writeCommandTable(out io.Writer, rows []commandRow, withFlags bool) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Path))
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, r := range rows {
		fmt.Fprintf(out, "  %-*s  %s\n", width, r.Path, r.Short)
		if withFlags && len(r.Flags) > 0 {
			fmt.Fprintf(out, "  %-*s    flags: %s\n", width, "", strings.Join(r.Flags, ", "))
		}
	}
}
