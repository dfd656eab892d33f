package main

import (
	"fmt"

	"github.com/spf13/cobra"

	rubix "github.com/RubixML/Client"
)

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.stdout, rubix.GetVersion())
			fmt.Fprintf(c.stdout, "User-Agent: %s\n", rubix.UserAgent())
		},
	}
}
