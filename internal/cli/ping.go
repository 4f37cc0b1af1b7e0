package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPingCommand creates the ping command.
func NewPingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend answers",
		Long: `Call the health check endpoint. Exits 1 if the backend does not answer
with success.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ping(rootOpts, cmd)
		},
	}
}

func ping(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	sess, err := openSession(cmd, opts, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	endpoint := sess.core.PingEndpoint()
	if err := sess.core.Ping(ctxOf(cmd)); err != nil {
		return sess.fail(f, err)
	}

	if f.JSON() {
		return f.Success(map[string]any{"endpoint": endpoint, "ok": true})
	}
	fmt.Fprintf(f.Writer, "ok %s\n", endpoint)
	return nil
}
