package cmd

import (
	"github.com/spf13/cobra"

	"github.com/telekom/careflow/pkg/ctl/output"
)

func newEmergencyCommand(rt *runtimeState) *cobra.Command {
	var supervisor string

	cmd := &cobra.Command{
		Use:   "emergency",
		Short: "List open emergency alerts, most severe and longest-waiting first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rt.newClient()
			if err != nil {
				return err
			}
			entries, err := c.Emergency().Queue(cmd.Context(), supervisor)
			if err != nil {
				return err
			}
			if rt.outputFormat == "json" {
				return rt.writeJSON(entries)
			}
			output.WriteEmergencyQueueTable(rt.writer, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&supervisor, "supervisor", "", "filter to alerts assigned to this supervisor")
	return cmd
}
