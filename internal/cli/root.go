package cli

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the tspawn-bench command tree.
func NewRootCmd(name string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         "Run lock contention workloads through tspawn",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("log-level", "warn", "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Set the log format (text, json)")

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		flags := cc.Flags()

		var merr error

		level, err := flags.GetString("log-level")
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		format, err := flags.GetString("log-format")
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		if merr != nil {
			return fmt.Errorf("invalid argument: %w", merr)
		}

		h, err := newLogHandler(cc.ErrOrStderr(), level, format)
		if err != nil {
			return fmt.Errorf("failed creating log handler: %w", err)
		}
		slog.SetDefault(slog.New(h))
		return nil
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	return cmd
}
