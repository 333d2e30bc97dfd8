package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/voxscribe/internal/voice"
	"github.com/flemzord/voxscribe/modules/history/sqlite"
	"github.com/flemzord/voxscribe/pkg/app"
)

func historyCmd() *cobra.Command {
	var (
		dbPath  string
		chatID  string
		outcome string
		since   time.Duration
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently handled voice messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				dbPath = filepath.Join(app.DefaultDataDir(), "history.db")
			}
			q := voice.Query{ChatID: chatID, Outcome: voice.Outcome(outcome), Limit: limit}
			if since > 0 {
				q.Since = time.Now().Add(-since)
			}

			store, err := sqlite.OpenStore(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.Recent(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "History database (default {data dir}/history.db)")
	cmd.Flags().StringVar(&chatID, "chat", "", "Only this chat ID")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Only this outcome (replied_text, replied_empty, replied_error, ignored, throttled)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only records newer than this, e.g. 24h")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records")
	return cmd
}

func printRecords(out io.Writer, records []voice.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "no records")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCHANNEL\tCHAT\tOUTCOME\tAUDIO\tELAPSED\tCHARS\tERROR")
	for _, r := range records {
		errText := r.ErrorKind
		if r.ReplyError != "" {
			errText += " (reply failed)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.At.Local().Format(time.DateTime),
			r.Channel,
			r.ChatID,
			r.Outcome,
			r.AudioDuration.Round(time.Second),
			r.Elapsed.Round(time.Millisecond),
			r.TextLength,
			errText,
		)
	}
	return w.Flush()
}
