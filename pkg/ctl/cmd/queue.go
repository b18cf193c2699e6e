package cmd

import (
	"github.com/spf13/cobra"

	"github.com/telekom/careflow/pkg/ctl/client"
	"github.com/telekom/careflow/pkg/ctl/output"
)

func newQueueCommand(rt *runtimeState) *cobra.Command {
	var opts client.QueueListOptions

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List episodes awaiting supervisor validation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rt.newClient()
			if err != nil {
				return err
			}
			items, err := c.Validation().Queue(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if rt.outputFormat == "json" {
				return rt.writeJSON(items)
			}
			output.WriteValidationQueueTable(rt.writer, items)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.SupervisorID, "supervisor", "", "filter by assigned supervisor")
	cmd.Flags().StringVar(&opts.UrgencyLevel, "urgency", "", "filter by urgency level (EMERGENCY, URGENT, ROUTINE, SELF_CARE)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum entries to return (0 = all)")
	return cmd
}
