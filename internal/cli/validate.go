package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/adapters/secondary/configfs"
	"model-promotion-service/internal/core/domain"
	output "model-promotion-service/internal/core/ports/output"
	"model-promotion-service/internal/core/services"
)

var errRejected = errors.New("one or more records were rejected")

type validateOptions struct {
	baseDir  string
	watch    bool
	debounce time.Duration
}

func newValidateCmd(g *globals) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <env>...",
		Short: "Validate the configuration records of one or more environments",
		Long: `Validate every record file of the given environments.

With --base-dir, each file is also compared with the file of the same name
under the base directory, normally a checkout of the target branch, so that
a change cannot move a record to another environment or model.

With --watch, validation reruns whenever a record file changes until the
command is interrupted.`,
		Example: `  mlpromote validate dev
  mlpromote validate dev pre-prod production --base-dir /tmp/main/deploy/models/config
  mlpromote validate dev --watch`,
		ValidArgs: domain.EnvironmentNames(),
		Args:      environmentArgs(1, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, opts, parseEnvironments(args))
		},
	}

	cmd.Flags().StringVar(&opts.baseDir, "base-dir", "", "Config directory of the committed tree to compare against")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Revalidate whenever a record file changes")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", configfs.DefaultDebounce, "Quiet period before revalidating in watch mode")

	return cmd
}

func runValidate(cmd *cobra.Command, g *globals, opts *validateOptions, envs []domain.Environment) error {
	validator := services.NewValidationService(g.cfg.Promotion.AllowedModels)
	proposed := configfs.NewStore(g.cfg.Promotion.ConfigDir)
	var base output.RecordSource
	if opts.baseDir != "" {
		base = configfs.NewStore(opts.baseDir)
	}

	run := func(ctx context.Context) error {
		return validateEnvironments(ctx, cmd.OutOrStdout(), validator, proposed, base, envs)
	}

	if !opts.watch {
		return run(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.WithError(err).Warn("validation failed")
	}

	dirs := make([]string, 0, len(envs))
	for _, env := range envs {
		dirs = append(dirs, filepath.Join(g.cfg.Promotion.ConfigDir, string(env)))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %d environment(s) for changes, press Ctrl+C to stop\n", len(dirs))

	err := configfs.Watch(ctx, dirs, opts.debounce, func() {
		if err := run(ctx); err != nil {
			log.WithError(err).Warn("validation failed")
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// validateEnvironments prints one line per record file and returns
// errRejected if any file was rejected.
func validateEnvironments(
	ctx context.Context,
	w io.Writer,
	validator *services.ValidationService,
	proposed, base output.RecordSource,
	envs []domain.Environment,
) error {
	rejected := 0
	for _, env := range envs {
		report, err := validator.ValidateEnvironment(ctx, env, proposed, base)
		if err != nil {
			return fmt.Errorf("validate %s: %w", env, err)
		}
		if len(report.Files) == 0 {
			fmt.Fprintf(w, "%s: no record files\n", env)
			continue
		}
		for _, f := range report.Files {
			switch {
			case !f.Decision.Accepted:
				rejected++
				fmt.Fprintf(w, "REJECTED  %s: %s\n", f.Path, f.Decision.Reason)
			case !f.Decision.Changed:
				fmt.Fprintf(w, "UNCHANGED %s\n", f.Path)
			default:
				fmt.Fprintf(w, "ACCEPTED  %s\n", f.Path)
			}
		}
	}

	if rejected > 0 {
		return NewExitError(fmt.Errorf("%w (%d file(s))", errRejected, rejected), ExitValidationError)
	}
	return nil
}
