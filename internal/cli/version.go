package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mlpromote version %s\n", Version)
			fmt.Fprintf(w, "  Commit:    %s\n", GitCommit)
			fmt.Fprintf(w, "  Built:     %s\n", BuildDate)
			fmt.Fprintf(w, "  Go:        %s\n", runtime.Version())
			return nil
		},
	}
}
