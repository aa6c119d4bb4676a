package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/cmd/callmanager/internal/build"
	"github.com/rafq345/callmanager/pkg/cli"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if format != cli.FormatTable {
			return cli.Output(out, build.Get(), format)
		}
		fmt.Fprintln(out, build.String())
		if IsVerbose() {
			fmt.Fprintf(out, "  go:     %s\n", build.Get().Go)
			if p, err := cli.ConfigPath(); err == nil {
				fmt.Fprintf(out, "  config: %s\n", p)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
