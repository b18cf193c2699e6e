// Package cmd implements the carectl operator CLI.
package cmd

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/careflow/pkg/ctl/client"
)

type runtimeState struct {
	server       string
	outputFormat string
	timeout      time.Duration
	writer       io.Writer
}

func (rt *runtimeState) newClient() (*client.Client, error) {
	return client.New(
		client.WithServer(rt.server),
		client.WithTimeout(rt.timeout),
	)
}

// writeJSON renders any payload as indented JSON when -o json is set.
func (rt *runtimeState) writeJSON(payload any) error {
	encoder := json.NewEncoder(rt.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func NewRootCommand() *cobra.Command {
	rt := &runtimeState{writer: os.Stdout}

	root := &cobra.Command{
		Use:           "carectl",
		Short:         "Careflow workflow engine CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.server == "" {
				rt.server = os.Getenv("CARECTL_SERVER")
			}
			if rt.server == "" {
				rt.server = "http://localhost:8080"
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&rt.server, "server", "s", "", "careflow API server URL (env: CARECTL_SERVER)")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "table", "output format: table or json")
	root.PersistentFlags().DurationVar(&rt.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newQueueCommand(rt),
		newEmergencyCommand(rt),
		newDecideCommand(rt),
		newEscalateCommand(rt),
		newVersionCommand(rt),
	)
	return root
}
