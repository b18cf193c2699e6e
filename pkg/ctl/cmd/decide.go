package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/careflow/pkg/ctl/client"
)

func newDecideCommand(rt *runtimeState) *cobra.Command {
	var (
		supervisor     string
		approve        bool
		override       bool
		overrideReason string
		notes          string
	)

	cmd := &cobra.Command{
		Use:   "decide <episodeId>",
		Short: "Record a supervisor validation decision for an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve == override {
				return errors.New("exactly one of --approve or --override is required")
			}
			if override && overrideReason == "" {
				return errors.New("--reason is required with --override")
			}

			c, err := rt.newClient()
			if err != nil {
				return err
			}
			result, err := c.Validation().Decide(cmd.Context(), client.DecisionRequest{
				EpisodeID:      args[0],
				SupervisorID:   supervisor,
				Approved:       approve,
				OverrideReason: overrideReason,
				Notes:          notes,
			})
			if err != nil {
				return err
			}
			if rt.outputFormat == "json" {
				return rt.writeJSON(result)
			}
			_, _ = fmt.Fprintf(rt.writer, "episode %s: approved=%t newStatus=%s\n", args[0], result.Approved, result.NewStatus)
			return nil
		},
	}

	cmd.Flags().StringVar(&supervisor, "supervisor", "", "deciding supervisor id")
	cmd.Flags().BoolVar(&approve, "approve", false, "approve the triage assessment")
	cmd.Flags().BoolVar(&override, "override", false, "override the triage assessment")
	cmd.Flags().StringVar(&overrideReason, "reason", "", "override reason (required with --override)")
	cmd.Flags().StringVar(&notes, "notes", "", "optional decision notes")
	_ = cmd.MarkFlagRequired("supervisor")
	return cmd
}
