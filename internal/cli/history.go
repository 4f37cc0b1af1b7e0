package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rconsole/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit     int
	RequestID string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded backend round trips",
		Long: `Show the operation journal: one entry per backend call, oldest first.
Requires journal.path in the settings.

Example:
  rconsole history --limit 20
  rconsole history --request-id 0190b5a2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "number of most recent entries (0 for all)")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "show the entry for one request id")

	return cmd
}

func showHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	s, logger, closer, err := loadSettings(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	if s.JournalPath == "" {
		return NewExitError(ExitCommandError, "journal.path is not configured")
	}

	j, err := journal.Open(s.JournalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	ctx := ctxOf(cmd)
	var entries []journal.Entry
	if opts.RequestID != "" {
		e, err := j.ByRequestID(ctx, opts.RequestID)
		if errors.Is(err, journal.ErrNotFound) {
			return WrapExitError(ExitFailure, "no such request", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		entries = []journal.Entry{e}
	} else {
		entries, err = j.List(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
	}

	if f.JSON() {
		return f.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(f.Writer, "No history.")
		return nil
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tOP\tMETHOD\tPATH\tOUTCOME\tSTATUS\tMESSAGE")
	for _, e := range entries {
		status := "-"
		if e.Status != 0 {
			status = fmt.Sprint(e.Status)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", e.Seq, e.Op, e.Method, e.Path, e.Outcome, status, e.Message)
	}
	return tw.Flush()
}
