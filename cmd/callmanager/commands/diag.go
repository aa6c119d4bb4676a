package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/pkg/cli"
	"github.com/rafq345/callmanager/pkg/diag"
)

var diagCmd = &cobra.Command{
	Use:   "diag <file>",
	Short: "Print a diagnostics dump",
	Long: `Print a diagnostics log written by 'callmanager connect --diag-out'.

Examples:
  callmanager connect --diag-out call.diag
  callmanager diag call.diag
  callmanager diag call.diag --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		entries, err := diag.Decode(data)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if format != cli.FormatTable {
			return cli.Output(out, entries, format)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No diagnostics.")
			return nil
		}
		cli.NewStyles(cli.DefaultTheme).WriteEntries(out, entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diagCmd)
}
