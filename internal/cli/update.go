package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rconsole/internal/core"
	"github.com/roach88/rconsole/internal/model"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Section string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <file|->",
		Short: "Replace a resource from a JSON document",
		Long: `Send a resource document to the backend, replacing the resource named by
its metadata.ref. Use "-" to read the document from stdin.

The section is reloaded afterwards whatever the outcome.

Example:
  rconsole update --section widgets widget-a.json
  cat widget-a.json | rconsole update --section widgets -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateResource(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Section, "section", "", "section the resource belongs to (default: settings value)")

	return cmd
}

func updateResource(opts *UpdateOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	doc, err := readInput(cmd, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}

	sess, err := openSession(cmd, opts.RootOptions, model.Section(opts.Section))
	if err != nil {
		return err
	}
	defer sess.Close()

	section := sess.core.Section()
	if !section.HasResources() {
		return NewExitError(ExitCommandError, "a resource section is required (use --section)")
	}

	ctx := ctxOf(cmd)
	if err := sess.start(ctx); err != nil {
		return sess.fail(f, err)
	}
	if err := sess.core.Update(ctx, string(doc)); err != nil {
		return sess.fail(f, err)
	}

	if f.JSON() {
		return f.Success(map[string]any{
			"section": string(section),
			"count":   len(sess.core.Resources()),
		}, sess.notes.Messages()...)
	}
	fmt.Fprintln(f.Writer, core.MsgUpdated)
	return nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
