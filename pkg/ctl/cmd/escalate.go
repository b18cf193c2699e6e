package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/careflow/pkg/ctl/client"
	"github.com/telekom/careflow/pkg/ctl/output"
)

func newEscalateCommand(rt *runtimeState) *cobra.Command {
	var (
		reason string
		level  string
		urgent bool
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "escalate <episodeId>",
		Short: "Create an escalation for an episode, or list its active escalations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.newClient()
			if err != nil {
				return err
			}

			if list {
				escalations, err := c.Escalations().ListActive(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if rt.outputFormat == "json" {
					return rt.writeJSON(escalations)
				}
				output.WriteEscalationTable(rt.writer, escalations)
				return nil
			}

			result, err := c.Escalations().Process(cmd.Context(), client.EscalationRequest{
				EpisodeID:      args[0],
				Reason:         reason,
				TargetLevel:    level,
				UrgentResponse: urgent,
			})
			if err != nil {
				return err
			}
			if rt.outputFormat == "json" {
				return rt.writeJSON(result)
			}
			_, _ = fmt.Fprintf(rt.writer, "escalation %s created at %s (respond within %d minutes)\n",
				result.Escalation.EscalationID, result.EscalationLevel, result.ExpectedResponseMinutes)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "escalation reason")
	cmd.Flags().StringVar(&level, "level", "", "target level (level-1, level-2, level-3, critical); derived from the episode when omitted")
	cmd.Flags().BoolVar(&urgent, "urgent", false, "request an urgent response (halves the response budget)")
	cmd.Flags().BoolVar(&list, "list", false, "list active escalations instead of creating one")
	return cmd
}
