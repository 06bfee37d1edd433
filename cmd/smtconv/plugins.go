package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/edgeflare/smtconv/pkg/converter"
	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/spf13/cobra"
)

func newPluginsCmd(_ *app) *cobra.Command {
	var options bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List transformations, serializers and connectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tDESCRIPTION")
			for _, p := range converter.DefaultRegistry().Plugins() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Kind, p.Doc)
				if !options || p.Schema == nil {
					continue
				}
				for _, k := range p.Schema.Keys() {
					def := "required"
					switch {
					case k.HasDefault:
						def = fmt.Sprintf("default %v", k.Default)
					case k.Optional:
						def = "optional"
					}
					fmt.Fprintf(w, "  %s\t%s, %s\t%s\n", k.Name, k.Type, def, k.Doc)
				}
			}
			for _, name := range pipeline.Connectors() {
				fmt.Fprintf(w, "%s\tconnector\t\n", name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&options, "options", "o", false, "also list the options of each transformation")
	return cmd
}
