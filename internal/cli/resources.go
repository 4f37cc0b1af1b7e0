package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rconsole/internal/model"
)

// ResourceRow is one listed resource.
type ResourceRow struct {
	Ref    string `json:"ref"`
	Name   string `json:"name,omitempty"`
	Digest string `json:"digest"`
}

// ResourceList is the resources command result.
type ResourceList struct {
	Section string        `json:"section"`
	Title   string        `json:"title"`
	Items   []ResourceRow `json:"items"`
}

// NewResourcesCommand creates the resources command.
func NewResourcesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources <section>",
		Short: "List the resources of a section",
		Long: `Run the startup handshake and list every resource of a section.

The section "registration" is served by the backend's "registry" collection.

Example:
  rconsole resources widgets
  rconsole resources registration --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listResources(rootOpts, model.Section(args[0]), cmd)
		},
	}
	return cmd
}

func listResources(opts *RootOptions, section model.Section, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	sess, err := openSession(cmd, opts, section)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.start(ctxOf(cmd)); err != nil {
		return sess.fail(f, err)
	}

	list := ResourceList{
		Section: string(section),
		Title:   sectionTitle(section),
		Items:   []ResourceRow{},
	}
	for _, r := range sess.core.Resources() {
		list.Items = append(list.Items, ResourceRow{Ref: r.Ref, Name: r.Name, Digest: r.Digest})
	}

	if f.JSON() {
		return f.Success(list, sess.notes.Messages()...)
	}

	w := f.Writer
	fmt.Fprintf(w, "%s (%d)\n", list.Title, len(list.Items))
	if len(list.Items) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REF\tNAME\tDIGEST")
	for _, row := range list.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Ref, row.Name, shortDigest(row.Digest))
	}
	return tw.Flush()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
