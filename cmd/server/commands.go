package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/config"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/platform/logger"
	"github.com/phrazzld/scry-srs/internal/platform/migrate"
	"github.com/phrazzld/scry-srs/internal/service/auth"
	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "scry-srs",
		Short:        "Spaced-repetition review scheduler",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to a YAML config file (default: ./config.yaml if present)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSimulateCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				log.Error("failed to initialize application", "error", err)
				return err
			}
			defer app.cleanup()

			return app.serve(ctx)
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(migrate.Commands, "|") + "]",
		Short:     "Run database migrations (default: up)",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrate.Commands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := migrate.CommandUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			if cfg.Database.Driver == config.DriverMemory {
				return errors.New("the memory driver has no migrations")
			}

			db, err := openDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Error("failed to close database", "error", closeErr)
				}
			}()

			return runMigrations(cmd.Context(), cfg.Database.Driver, db, command, log)
		},
	}
}

// simulateOptions holds the flags of the simulate command.
type simulateOptions struct {
	qualities    []int
	difficulty   string
	responseTime int64
	hints        int
	attempts     int
	start        string
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	sim := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay review scores against a fresh item and print the schedule",
		Long: "Replay review scores against a fresh item and print the schedule.\n" +
			"Each review happens on the day the previous one scheduled. Scheduler\n" +
			"settings are read from --config when given, otherwise defaults apply.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := srs.NewDefaultParams()
			if opts.configPath != "" {
				cfg, err := config.LoadFile(opts.configPath)
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				if params, err = schedulerParams(cfg.Scheduler); err != nil {
					return err
				}
			}

			difficulty, err := domain.ParseDifficulty(sim.difficulty)
			if err != nil {
				return err
			}

			start := time.Now().UTC()
			if sim.start != "" {
				if start, err = time.Parse(time.DateOnly, sim.start); err != nil {
					return fmt.Errorf("invalid --start, expected YYYY-MM-DD: %w", err)
				}
			}

			steps, err := simulate(srs.NewServiceWithParams(params), simulation{
				Qualities:      sim.qualities,
				Difficulty:     difficulty,
				ResponseTimeMs: sim.responseTime,
				HintsUsed:      sim.hints,
				Attempts:       sim.attempts,
				Start:          start,
			})
			if err != nil {
				return err
			}
			return writeSimulation(cmd.OutOrStdout(), steps)
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&sim.qualities, "quality", []int{5, 4, 3}, "comma separated review scores (0-5)")
	flags.StringVar(&sim.difficulty, "difficulty", string(domain.DifficultyMedium),
		"content difficulty: "+strings.Join(difficultyNames(), ", "))
	flags.Int64Var(&sim.responseTime, "response-time", 8000, "response time of every review in milliseconds")
	flags.IntVar(&sim.hints, "hints", 0, "hints used in every review")
	flags.IntVar(&sim.attempts, "attempts", 1, "attempts in every review")
	flags.StringVar(&sim.start, "start", "", "date of the first review, YYYY-MM-DD (default: today)")
	return cmd
}

func difficultyNames() []string {
	names := make([]string, 0, len(domain.Difficulties))
	for _, d := range domain.Difficulties {
		names = append(names, string(d))
	}
	return names
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			userID := uuid.New()
			if user != "" {
				if userID, err = uuid.Parse(user); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}

			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return err
			}
			token, err := jwtService.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user_id: %s\ntoken:   %s\n", userID, token)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID to embed (default: random)")
	return cmd
}
