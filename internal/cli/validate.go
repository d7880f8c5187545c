package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirkobrombin/go-tspawn/v1/workload"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workload.yaml>",
		Short: "Check a workload file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := workload.Load(args[0])
			if err != nil {
				return err
			}
			n := 0
			for _, t := range wl.Tasks {
				n += max(t.Repeat, 1)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cells, %d tasks\n", args[0], len(wl.Cells), n)
			return nil
		},
	}
}
