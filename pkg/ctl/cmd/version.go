package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/careflow/pkg/version"
)

func newVersionCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show carectl version",
		RunE: func(_ *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()
			if rt.outputFormat == "json" {
				return rt.writeJSON(info)
			}
			_, _ = fmt.Fprintf(rt.writer, "carectl %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
			return nil
		},
	}
}
