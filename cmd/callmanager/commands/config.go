package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage contexts. A context is a named set of call settings:

  api_key            credential (falls back to $OPENAI_API_KEY)
  model, voice       remote model and voice
  instructions       system prompt
  instructions_file  file holding the system prompt
  microphone         microphone id (a WAV file name in devices_dir)
  speaker            output sink id
  devices_dir        WAV device directory (default ~/.callmanager/devices)
  proxy_url          negotiate through a glue server
  relay_url          legacy websocket relay (ws://host/ws-proxy)

Examples:
  callmanager config add-context dev
  callmanager config set dev api_key sk-xxx
  callmanager config use-context dev
  callmanager config list
  callmanager config view dev`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddContext(args[0], &cli.Context{}); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "context %q created", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "switched to context %q", args[0])
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a context",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "context %q deleted", args[0])
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <context> <key> <value>",
	Short: "Set a context value (empty value clears it)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.SetValue(args[0], args[1], args[2]); err != nil {
			return err
		}
		shown := args[2]
		if args[1] == "api_key" {
			shown = cli.MaskAPIKey(shown)
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "%s.%s = %s", args[0], args[1], shown)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		format, err := outputFormat()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		names := cfg.ListContexts()
		if format != cli.FormatTable {
			return cli.Output(out, map[string]any{"current_context": cfg.CurrentContext, "contexts": names}, format)
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "No contexts configured.")
			fmt.Fprintln(out, "Create one with: callmanager config add-context <name>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tMODEL\tVOICE\tMICROPHONE\tAPI KEY")
		for _, name := range names {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", current, name,
				orDash(ctx.Model), orDash(ctx.Voice), orDash(ctx.Microphone), orDash(cli.MaskAPIKey(ctx.APIKey)))
		}
		return w.Flush()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view [name]",
	Short: "Show a context (default: current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		ctx, err := cfg.ResolveContext(name)
		if err != nil {
			return err
		}
		format, err := outputFormat()
		if err != nil {
			return err
		}
		masked := *ctx
		masked.APIKey = cli.MaskAPIKey(ctx.APIKey)
		if format == cli.FormatTable {
			format = cli.FormatYAML
		}
		return cli.Output(cmd.OutOrStdout(), &masked, format)
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)
}
