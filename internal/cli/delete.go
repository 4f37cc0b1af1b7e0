package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rconsole/internal/model"
)

// DeleteResult is the delete command result.
type DeleteResult struct {
	Section  string   `json:"section"`
	Removed  []string `json:"removed"`
	Failed   []string `json:"failed,omitempty"`
	Conflict string   `json:"conflict,omitempty"`
	Aborted  bool     `json:"aborted,omitempty"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <section> <ref>...",
		Short: "Delete resources of a section",
		Long: `Delete resources one at a time, in the order given.

A conflict stops the batch at once. Other failures are collected and the
remaining resources are still deleted; the section is then reloaded.

Exit codes:
  0 - Every resource was removed
  1 - A conflict aborted the batch or some deletions failed
  2 - Command error

Example:
  rconsole delete widgets widget-a widget-b`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteResources(rootOpts, model.Section(args[0]), args[1:], cmd)
		},
	}
	return cmd
}

func deleteResources(opts *RootOptions, section model.Section, refs []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	sess, err := openSession(cmd, opts, section)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := ctxOf(cmd)
	if err := sess.start(ctx); err != nil {
		return sess.fail(f, err)
	}

	report, err := sess.core.DeleteMany(ctx, section, refs)
	result := DeleteResult{
		Section:  string(section),
		Removed:  report.Removed,
		Failed:   report.Failed,
		Conflict: report.Conflict,
		Aborted:  report.Aborted,
	}
	if result.Removed == nil {
		result.Removed = []string{}
	}

	if err != nil {
		if f.JSON() {
			if encErr := f.Error(ErrorCode(err), sess.message(err), result, sess.notes.Messages()...); encErr != nil {
				return encErr
			}
		} else if len(result.Removed) > 0 {
			fmt.Fprintf(f.Writer, "Removed: %s\n", strings.Join(result.Removed, ", "))
		}
		return WrapExitError(ExitFailure, sess.message(err), err)
	}

	if f.JSON() {
		return f.Success(result, sess.notes.Messages()...)
	}
	fmt.Fprintln(f.Writer, sess.notes.Last())
	return nil
}
