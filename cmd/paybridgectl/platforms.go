package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/smallbiznis/paybridge/internal/platform/catalog"
	"github.com/spf13/cobra"
)

func platformsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List the supported payment platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms := catalog.Platforms()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(platforms)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tWEBHOOK\tREFUND\tWEBSITE")
			for _, p := range platforms {
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", p.ID, p.Name, p.SupportsWebhook, p.SupportsRefund, p.Website)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}
