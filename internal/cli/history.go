package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cognicore/sbc/pkg/sbc/config"
	"github.com/cognicore/sbc/pkg/sbc/journal"
)

func newHistoryCmd(v *viper.Viper, flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [session]",
		Short: "List journaled sessions, or the entries of one session",
		Long: "Without arguments, lists the sessions recorded in the journal, most\n" +
			"recent first. With a session id, prints that session's entries.\n" +
			"Only a persistent journal (--journal) outlives a single run.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			settings, err := config.LoadSettings(v, flags.configPath)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			store, err := openJournal(ctx, settings.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				entries, err := store.List(ctx, args[0], limit)
				if err != nil {
					return fmt.Errorf("list entries: %w", err)
				}
				printEntries(out, entries)
				return nil
			}

			sessions, err := store.Sessions(ctx)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}
			printSessions(out, sessions)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of rows (0 = all)")
	return cmd
}

func printEntries(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nenhuma operação registrada.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		subject := e.Subject
		if e.Detail != "" {
			subject += " (" + e.Detail + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.At.Format(time.TimeOnly), e.Op, subject, e.Result)
	}
	tw.Flush()
}

func printSessions(w io.Writer, sessions []journal.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "Nenhuma sessão registrada.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.SessionID, s.Entries,
			s.FirstAt.Format(time.DateTime), s.LastAt.Format(time.DateTime))
	}
	tw.Flush()
}
