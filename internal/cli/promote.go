package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"model-promotion-service/internal/core/domain"
	"model-promotion-service/internal/core/services"
)

type promoteOptions struct {
	commitSHA string
	author    string
}

func newPromoteCmd(g *globals) *cobra.Command {
	opts := &promoteOptions{}

	cmd := &cobra.Command{
		Use:   "promote <env>",
		Short: "Promote the model versions named by the records of an environment",
		Long: `Validate every record of the environment and, if all are accepted,
set the baseline alias of each model to the version its record names.

Records with a rollout also get one challenger alias per variant and, when
the Kubernetes integration is enabled, their InferenceServices and weighted
AI Gateway route are synced. Every promotion is attempted even if an earlier
one failed.`,
		Example:   `  mlpromote promote production --commit-sha "$GITHUB_SHA" --author "$GITHUB_ACTOR"`,
		ValidArgs: domain.EnvironmentNames(),
		Args:      environmentArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(cmd, g, opts, parseEnvironments(args)[0])
		},
	}

	cmd.Flags().StringVar(&opts.commitSHA, "commit-sha", os.Getenv("GITHUB_SHA"), "Commit the records were taken from")
	cmd.Flags().StringVar(&opts.author, "author", os.Getenv("GITHUB_ACTOR"), "Author of the change")

	return cmd
}

func runPromote(cmd *cobra.Command, g *globals, opts *promoteOptions, env domain.Environment) error {
	a, err := g.app(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Trigger.Run(cmd.Context(), services.TriggerRequest{
		Environment: env,
		CommitSHA:   opts.commitSHA,
		Author:      opts.author,
	})
	if report != nil {
		printTriggerReport(cmd.OutOrStdout(), report)
	}
	if err == nil {
		return nil
	}

	// Nothing was promoted: the run stopped at validation.
	if report == nil || len(report.Results) == 0 {
		if domain.IsValidationError(err) {
			return NewExitError(err, ExitValidationError)
		}
		return err
	}
	return NewExitError(err, ExitPromotionError)
}

func printTriggerReport(w io.Writer, report *services.TriggerReport) {
	for _, d := range report.Decisions {
		if !d.Decision.Accepted {
			fmt.Fprintf(w, "REJECTED  %s: %s\n", d.Path, d.Decision.Reason)
		}
	}
	for _, r := range report.Results {
		if r == nil {
			continue
		}
		line := fmt.Sprintf("%-9s %s/%s version %s -> %s", strings.ToUpper(string(r.Status)), r.Environment, r.ModelName, r.Version, r.Alias)
		if len(r.ChallengerAliases) > 0 {
			line += " challengers [" + strings.Join(r.ChallengerAliases, ", ") + "]"
		}
		if r.Revision > 0 {
			line += fmt.Sprintf(" revision %d", r.Revision)
		}
		fmt.Fprintln(w, line)
		for _, ep := range r.Endpoints {
			fmt.Fprintf(w, "  serving %s version %s ready=%t%s\n", ep.Name, ep.Version, ep.Ready, endpointDetail(ep))
		}
		if r.Rollback != nil {
			fmt.Fprint(w, r.Rollback.Instructions())
		}
	}
}

func endpointDetail(ep domain.ServingEndpoint) string {
	var detail string
	if ep.Weight > 0 {
		detail += fmt.Sprintf(" weight=%d", ep.Weight)
	}
	if ep.URL != "" {
		detail += " url=" + ep.URL
	}
	if ep.Error != "" {
		detail += " error=" + strconv.Quote(ep.Error)
	}
	return detail
}
