package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/rconsole/internal/logstream"
)

// LogsOptions holds flags for the logs command.
type LogsOptions struct {
	*RootOptions
	Follow bool
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print or follow the service logs",
		Long: `Print the service logs, or follow the live log stream with --follow until
interrupted.

Example:
  rconsole logs
  rconsole logs --follow
  rconsole logs url`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Follow {
				return followLogs(opts, cmd)
			}
			return printLogs(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "follow the live log stream")
	cmd.AddCommand(newLogsURLCommand(rootOpts))

	return cmd
}

func newLogsURLCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "url",
		Short:         "Print the log stream URL",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			sess, err := openSession(cmd, rootOpts, "")
			if err != nil {
				return err
			}
			defer sess.Close()

			url := sess.core.SystemLogsURL()
			if f.JSON() {
				return f.Success(map[string]any{"url": url})
			}
			fmt.Fprintln(f.Writer, url)
			return nil
		},
	}
}

func printLogs(opts *LogsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(cmd, opts.RootOptions, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	data, ok := sess.core.SystemLogs(ctxOf(cmd))
	if !ok {
		return sess.fail(f, fmt.Errorf("system logs unavailable"))
	}

	if f.JSON() {
		return f.Success(data, sess.notes.Messages()...)
	}
	for _, line := range logLines(data) {
		fmt.Fprintln(f.Writer, line)
	}
	return nil
}

// logLines renders a logs payload: a string is split into lines, an array
// prints one element per line, anything else is printed as JSON.
func logLines(data json.RawMessage) []string {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return []string{text}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				lines = append(lines, s)
			} else {
				lines = append(lines, string(item))
			}
		}
		return lines
	}
	if len(data) == 0 {
		return nil
	}
	return []string{string(data)}
}

func followLogs(opts *LogsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(cmd, opts.RootOptions, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	url := sess.core.SystemLogsURL()
	sess.logger.Info("following logs", "url", url)

	enc := json.NewEncoder(f.Writer)
	follower := logstream.New(logstream.WithLogger(sess.logger))
	err = follower.Follow(ctx, url, func(line string) error {
		if f.JSON() {
			return enc.Encode(map[string]string{"line": line})
		}
		_, err := fmt.Fprintln(f.Writer, line)
		return err
	})
	if err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "log stream failed", err)
	}
	return nil
}
