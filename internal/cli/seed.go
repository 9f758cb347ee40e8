package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"truth-or-twist/internal/config"
	"truth-or-twist/internal/domain"
	"truth-or-twist/internal/infra/memory"
	"truth-or-twist/internal/infra/postgres"
	"truth-or-twist/internal/logging"
)

// NewSeedCmd loads the built-in statement set into Postgres for a week.
func NewSeedCmd(configPath *string) *cobra.Command {
	var week int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the weekly statement bank with the built-in set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, week)
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number to seed (default: bank.week or the current week)")
	return cmd
}

func runSeed(ctx context.Context, configPath string, week int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, nil)
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}

	if week <= 0 {
		week = weekSource(cfg.Bank.Week)()
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	statements := fallbackStatements()
	if err := postgres.NewStatementLoader(pool).SeedWeek(ctx, week, statements); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"week": week, "statements": len(statements), "topic": domain.TopicForWeek(week)}).Info("bank seeded")
	return nil
}

// weekSource pins the week when fixed > 0, otherwise derives it from the clock.
func weekSource(fixed int) func() int {
	if fixed > 0 {
		return memory.FixedWeek(fixed)
	}
	return func() int { return domain.WeekNumber(time.Now()) }
}
