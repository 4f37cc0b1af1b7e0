package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/rconsole/internal/core"
	"github.com/roach88/rconsole/internal/model"
	"github.com/roach88/rconsole/internal/notify"
	"github.com/roach88/rconsole/internal/settings"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Section string
	Input   bool
}

// SnapshotLine is one state change printed by watch.
type SnapshotLine struct {
	Phase      string `json:"phase"`
	Section    string `json:"section"`
	Authorized bool   `json:"authorized"`
	ReadOnly   bool   `json:"read_only"`
	Seq        int64  `json:"seq"`
	Resources  int    `json:"resources"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the console core and print every state change",
		Long: `Run the console's event loop and print a line for every state change and
every notification.

Startup waits for a token. When token_file is set, the file is watched and
each new token is handed to the console. With --input, section names are
read from stdin, one per line, and watch stops when stdin is closed.

Example:
  rconsole watch --section widgets
  printf 'widgets\nregistration\n' | rconsole watch --input`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Section, "section", "", "initial section (default: settings value)")
	cmd.Flags().BoolVar(&opts.Input, "input", false, "read section names from stdin; stop at EOF")

	return cmd
}

func watch(opts *WatchOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	lines := notify.NewWriter(f.Writer)

	var printer notify.Notifier = lines
	if f.JSON() {
		printer = notify.Func(func(msg string) {
			out, _ := json.Marshal(map[string]string{"notification": msg})
			lines.Notify(string(out))
		})
	}

	sess, err := openSession(cmd, opts.RootOptions, model.Section(opts.Section), printer)
	if err != nil {
		return err
	}
	defer sess.Close()

	c := sess.core
	unsubscribe := c.Subscribe(func(snap core.Snapshot) {
		lines.Notify(formatSnapshot(f, snap))
	})
	defer unsubscribe()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(ctxOf(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			sess.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if path := sess.settings.TokenFile; path != "" {
		go func() {
			if err := settings.WatchToken(ctx, path, sess.logger, c.SetToken); err != nil {
				sess.logger.Error("token watcher stopped", "error", err)
			}
		}()
	}

	if opts.Input {
		go readSections(ctx, cmd, c)
	}

	sess.logger.Info("console starting", "section", c.Section())
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "console error", err)
	}

	sess.logger.Info("console stopped gracefully")
	return nil
}

// readSections selects each section named on stdin and stops the core at EOF.
func readSections(ctx context.Context, cmd *cobra.Command, c *core.Core) {
	defer c.Stop()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		c.SelectSection(model.Section(name))
	}
}

func formatSnapshot(f *OutputFormatter, snap core.Snapshot) string {
	line := SnapshotLine{
		Phase:      snap.Phase.String(),
		Section:    string(snap.Section),
		Authorized: snap.Authorized,
		ReadOnly:   snap.ReadOnly,
		Seq:        snap.Seq,
		Resources:  len(snap.Resources),
	}
	if f.JSON() {
		out, _ := json.Marshal(line)
		return string(out)
	}
	return fmt.Sprintf("phase=%s section=%s authorized=%t read_only=%t seq=%d resources=%d",
		line.Phase, line.Section, line.Authorized, line.ReadOnly, line.Seq, line.Resources)
}
