package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/pkg/cli"
	"github.com/rafq345/callmanager/pkg/journal"
	"github.com/rafq345/callmanager/pkg/kv"
)

var (
	journalDir string
	pruneKeep  int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect the session journal",
	Long: `Every call writes a record to the journal (~/.callmanager/journal):
id, model, voice, start and end time, final state, failure reason,
reconnect and interruption counts, and the last diagnostics entries.

Examples:
  callmanager sessions list
  callmanager sessions show 4f0c...
  callmanager sessions prune --keep 20`,
}

// openJournal opens the badger-backed journal. The caller closes the store.
func openJournal() (*journal.Journal, kv.Store, error) {
	dir := journalDir
	if dir == "" {
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, nil, err
		}
		if err := paths.EnsureJournalDir(); err != nil {
			return nil, nil, err
		}
		dir = paths.JournalDir()
	}
	store, err := kv.OpenBadger(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	return journal.New(store), store, nil
}

var sessionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		j, store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := j.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if format != cli.FormatTable {
			return cli.Output(out, records, format)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No sessions recorded.")
			return nil
		}
		styles := cli.NewStyles(cli.DefaultTheme)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tSTATE\tRECONNECTS\tINTERRUPTIONS\tREASON")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ID, cli.FormatTime(r.StartedAt), cli.FormatDuration(r.Duration()),
				styles.State(r.FinalState), r.Reconnects, r.Interruptions, orDash(r.Reason))
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session with its diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		j, store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		r, err := j.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if format != cli.FormatTable {
			return cli.Output(out, r, format)
		}

		styles := cli.NewStyles(cli.DefaultTheme)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID:\t%s\n", r.ID)
		fmt.Fprintf(w, "Model:\t%s\n", r.Model)
		fmt.Fprintf(w, "Voice:\t%s\n", r.Voice)
		fmt.Fprintf(w, "Started:\t%s\n", cli.FormatTime(r.StartedAt))
		fmt.Fprintf(w, "Ended:\t%s\n", cli.FormatTime(r.EndedAt))
		fmt.Fprintf(w, "Duration:\t%s\n", cli.FormatDuration(r.Duration()))
		fmt.Fprintf(w, "State:\t%s\n", styles.State(r.FinalState))
		fmt.Fprintf(w, "Reason:\t%s\n", orDash(r.Reason))
		fmt.Fprintf(w, "Reconnects:\t%d\n", r.Reconnects)
		fmt.Fprintf(w, "Interruptions:\t%d\n", r.Interruptions)
		if err := w.Flush(); err != nil {
			return err
		}
		if len(r.Diagnostics) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, styles.Title.Render("Diagnostics"))
			styles.WriteEntries(out, r.Diagnostics)
		}
		return nil
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneKeep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}
		j, store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := j.Prune(cmd.Context(), pruneKeep)
		if err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "removed %d session(s)", n)
		return nil
	},
}

func init() {
	sessionsCmd.PersistentFlags().StringVar(&journalDir, "journal", "", "journal directory (default ~/.callmanager/journal)")
	sessionsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 50, "number of sessions to keep")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}
