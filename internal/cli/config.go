package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rconsole/internal/core"
	"github.com/roach88/rconsole/internal/model"
)

// ConfigShowOptions holds flags for config show.
type ConfigShowOptions struct {
	*RootOptions
	YAML bool
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the service configuration",
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigSaveCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the service configuration",
		Long: `Load the service configuration and print it.

Example:
  rconsole config show
  rconsole config show --yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "print as YAML")

	return cmd
}

func newConfigSaveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <file|->",
		Short: "Validate and save a service configuration",
		Long: `Validate a configuration document against the configuration schema and
send it to the backend. Changes take effect on the next restart.

Example:
  rconsole config save config.json
  rconsole restart --now`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveConfig(rootOpts, args[0], cmd)
		},
	}
}

func showConfig(opts *ConfigShowOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(cmd, opts.RootOptions, model.SectionSettings)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.start(ctxOf(cmd)); err != nil {
		return sess.fail(f, err)
	}

	doc := plainValue(sess.core.Config().Document())

	switch {
	case f.JSON():
		return f.Success(doc, sess.notes.Messages()...)
	case opts.YAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to render config", err)
		}
		_, err = f.Writer.Write(out)
		return err
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return WrapExitError(ExitFailure, "failed to render config", err)
		}
		fmt.Fprintln(f.Writer, string(out))
		return nil
	}
}

func saveConfig(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	raw, err := readInput(cmd, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read config", err)
	}
	cfg, err := model.ParseConfig(raw)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse config", err)
	}

	sess, err := openSession(cmd, opts, model.SectionSettings)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := ctxOf(cmd)
	if err := sess.start(ctx); err != nil {
		return sess.fail(f, err)
	}
	if err := sess.core.SaveConfig(ctx, cfg); err != nil {
		return sess.fail(f, err)
	}

	if f.JSON() {
		return f.Success(map[string]any{"saved": true}, sess.notes.Messages()...)
	}
	fmt.Fprintln(f.Writer, core.MsgConfigSaved)
	return nil
}

// plainValue replaces json.Number with int64 or float64 so YAML renders
// numbers as numbers.
func plainValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}
