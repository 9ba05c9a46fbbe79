package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"model-promotion-service/internal/core/domain"
	output "model-promotion-service/internal/core/ports/output"
)

type historyOptions struct {
	limit  int
	offset int
	json   bool
}

func newHistoryCmd(g *globals) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history <env> <model>",
		Short: "List the accepted revisions of a record, newest first",
		Long: `List the revisions of the record of one model in one environment, as
stored by earlier promotions. Requires the revision history database.`,
		Example: `  mlpromote history production churn --limit 5`,
		Args:    environmentModelArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, _ := domain.ParseEnvironment(args[0])
			return runHistory(cmd, g, opts, env, args[1])
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of revisions to list")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Number of revisions to skip")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print revisions as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, g *globals, opts *historyOptions, env domain.Environment, model string) error {
	a, err := g.app(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	revisions, total, err := a.History.History(cmd.Context(), output.RevisionFilter{
		Environment: env,
		ModelName:   model,
		Limit:       opts.limit,
		Offset:      opts.offset,
	})
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"items": revisions, "total": total})
	}
	printRevisions(cmd.OutOrStdout(), revisions, total)
	return nil
}

func printRevisions(w io.Writer, revisions []*domain.ConfigRevision, total int) {
	if len(revisions) == 0 {
		fmt.Fprintln(w, "no revisions")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REVISION\tVERSION\tROLLOUT\tCOMMIT\tAUTHOR\tCREATED\tACTIVE")
	for _, rev := range revisions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
			rev.Revision,
			rev.Config.Version,
			rolloutSummary(rev.Config),
			shortSHA(rev.CommitSHA),
			dash(rev.Author),
			rev.CreatedAt.Format("2006-01-02 15:04:05"),
			rev.IsActive(),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d revision(s)\n", len(revisions), total)
}

func rolloutSummary(cfg *domain.EnvironmentConfig) string {
	if !cfg.HasRollout() {
		return "-"
	}
	parts := make([]string, 0, len(cfg.Rollout.Variants))
	for _, v := range cfg.Rollout.Variants {
		parts = append(parts, fmt.Sprintf("%s=%s@%d", v.Name, v.Version, v.Weight))
	}
	return cfg.Rollout.Experiment + ":" + strings.Join(parts, ",")
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return dash(sha)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
