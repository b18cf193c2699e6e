package main

import (
	"fmt"
	"os"

	ctlcmd "github.com/telekom/careflow/pkg/ctl/cmd"
)

func main() {
	root := ctlcmd.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
