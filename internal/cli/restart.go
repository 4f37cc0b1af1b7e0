package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rconsole/internal/core"
)

// RestartOptions holds flags for the restart command.
type RestartOptions struct {
	*RootOptions
	Status string
	Now    bool
}

// NewRestartCommand creates the restart command.
func NewRestartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Request a service status transition",
		Long: `Ask the service to move to a status, "running" by default, which restarts it
with the saved configuration. Without --now the service finishes in-flight
work first.

Example:
  rconsole restart --now`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return restartService(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "running", "target status")
	cmd.Flags().BoolVar(&opts.Now, "now", false, "do not wait for in-flight work")

	return cmd
}

func restartService(opts *RestartOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Status == "" {
		return NewExitError(ExitCommandError, "--status must not be empty")
	}

	sess, err := openSession(cmd, opts.RootOptions, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.core.ChangeStatus(ctxOf(cmd), opts.Status, opts.Now); err != nil {
		return sess.fail(f, err)
	}

	if f.JSON() {
		return f.Success(map[string]any{"status": opts.Status, "now": opts.Now}, sess.notes.Messages()...)
	}
	fmt.Fprintln(f.Writer, core.MsgRestarting)
	return nil
}
