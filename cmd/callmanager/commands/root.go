package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	logJSON      bool
	formatOutput string

	// Global configuration (loaded lazily)
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "callmanager",
	Short: "Realtime voice calls over WebRTC",
	Long: `callmanager - run realtime voice calls against the OpenAI realtime API.

A call streams a microphone to the remote model over a WebRTC peer
connection, keeps an "oai-events" data channel in sync with the session
configuration, plays the model's audio, and cancels the model's response
when the user talks over it.

Devices are WAV files: every <name>.wav in the devices directory is a
microphone, and the speaker records into <devices>/out/.

Configuration is stored in ~/.callmanager/config.yaml
(override with $CALLMANAGER_CONFIG).

Examples:
  # Create a context
  callmanager config add-context dev
  callmanager config set dev api_key sk-xxx
  callmanager config set dev microphone greeting

  # Place a call
  callmanager connect --instructions "Speak like a pirate."

  # Run the glue proxy
  callmanager serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "table", "output format (table, yaml, json)")
}

func setupLogging(w io.Writer) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if logJSON {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// GetConfig returns the global configuration.
func GetConfig() (*cli.Config, error) {
	if globalConfig == nil {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseFormat(formatOutput)
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
