// Package cli implements the mlpromote command line used by the CI
// pipeline.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/app"
	"model-promotion-service/internal/config"
	"model-promotion-service/internal/core/domain"
)

// AppFactory builds the services a command runs against.
type AppFactory func(ctx context.Context, cfg *config.Config) (*app.App, error)

type globals struct {
	configFile string
	configDir  string
	verbose    bool

	cfg     *config.Config
	factory AppFactory
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(app.New)
}

func newRootCmd(factory AppFactory) *cobra.Command {
	g := &globals{factory: factory}

	rootCmd := &cobra.Command{
		Use:   "mlpromote",
		Short: "Validate and promote model environment configuration records",
		Long: `mlpromote checks the environment configuration records under the
config directory and promotes the model versions they name to the
baseline alias of the model registry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.initialize()
		},
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "Path to config file (env: MLPROMOTE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&g.configDir, "config-dir", "", "Directory holding one sub-directory of records per environment")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return NewExitError(err, ExitUsageError)
	})

	rootCmd.AddCommand(newValidateCmd(g))
	rootCmd.AddCommand(newPromoteCmd(g))
	rootCmd.AddCommand(newHistoryCmd(g))
	rootCmd.AddCommand(newRollbackCmd(g))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func (g *globals) initialize() error {
	configFile := g.configFile
	if configFile == "" {
		configFile = os.Getenv("MLPROMOTE_CONFIG")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return NewExitError(err, ExitUsageError)
	}
	if g.configDir != "" {
		cfg.Promotion.ConfigDir = g.configDir
	}
	if g.verbose {
		cfg.Logger.Level = "debug"
	}
	app.InitLogger(cfg.Logger)
	log.SetOutput(os.Stderr)

	log.WithFields(log.Fields{
		"config_dir": cfg.Promotion.ConfigDir,
		"registry":   cfg.Registry.URL,
		"history":    cfg.Database.Enabled,
	}).Debug("initializing CLI")

	g.cfg = cfg
	return nil
}

func (g *globals) app(ctx context.Context) (*app.App, error) {
	return g.factory(ctx, g.cfg)
}

// environmentArgs accepts between min and max environment names. max 0
// means no upper bound.
func environmentArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min || (max > 0 && len(args) > max) {
			return usageError("%s: unexpected number of arguments (usage: %s)", cmd.Name(), cmd.UseLine())
		}
		for _, a := range args {
			if err := checkEnvironment(a); err != nil {
				return err
			}
		}
		return nil
	}
}

// environmentModelArgs accepts exactly <env> <model>.
func environmentModelArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return usageError("%s: expected <env> <model> (usage: %s)", cmd.Name(), cmd.UseLine())
	}
	return checkEnvironment(args[0])
}

func checkEnvironment(name string) error {
	if _, err := domain.ParseEnvironment(name); err != nil {
		return usageError("invalid environment %q: must be one of %s", name, domain.EnvironmentList())
	}
	return nil
}

func parseEnvironments(args []string) []domain.Environment {
	envs := make([]domain.Environment, 0, len(args))
	for _, a := range args {
		env, _ := domain.ParseEnvironment(a)
		envs = append(envs, env)
	}
	return envs
}
