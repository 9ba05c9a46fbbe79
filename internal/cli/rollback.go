package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"model-promotion-service/internal/core/domain"
)

func newRollbackCmd(g *globals) *cobra.Command {
	var revision int

	cmd := &cobra.Command{
		Use:   "rollback <env> <model> --to <revision>",
		Short: "Restore the record of an earlier revision",
		Long: `Rewrite the record file of a model with the content of an earlier
revision. The registry is not touched: commit the file and open a pull
request so the rollback goes through review and the normal promotion.`,
		Example: `  mlpromote rollback production churn --to 3`,
		Args:    environmentModelArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if revision <= 0 {
				return usageError("--to must be a positive revision number")
			}
			env, _ := domain.ParseEnvironment(args[0])

			a, err := g.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			proposal, err := a.History.Rollback(cmd.Context(), env, args[1], revision)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !proposal.Changed {
				fmt.Fprintf(w, "%s already matches revision %d, nothing to do\n", proposal.Path, proposal.FromRevision)
				return nil
			}
			fmt.Fprintf(w, "restored revision %d of %s/%s to %s\n", proposal.FromRevision, env, args[1], proposal.Path)
			fmt.Fprintln(w, "commit the file and open a pull request to roll back")
			return nil
		},
	}

	cmd.Flags().IntVar(&revision, "to", 0, "Revision to restore (required)")

	return cmd
}
