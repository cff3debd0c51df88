// Command seed writes local SQLite fixture databases, one per registered
// application, so the portal can run without the production stores.
package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"logportal/config"
	"logportal/database"
	"logportal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()

	if err := newSeedCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	v := config.NewViper()
	v.SetDefault("seed-days", 7)
	v.SetDefault("seed-per-day", 100)

	cmd := &cobra.Command{
		Use:          "seed [app-key...]",
		Short:        "Write SQLite fixture databases for registered applications",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), v, args)
		},
	}

	flags := cmd.Flags()
	flags.String("db-config-path", v.GetString("db-config-path"), "application registry file")
	flags.String("dir", v.GetString("local-db-dir"), "output directory")
	flags.Int("days", v.GetInt("seed-days"), "days of history")
	flags.Int("per-day", v.GetInt("seed-per-day"), "rows per day")
	flags.String("log-level", v.GetString("log-level"), "log level")
	_ = v.BindPFlag("db-config-path", flags.Lookup("db-config-path"))
	_ = v.BindPFlag("local-db-dir", flags.Lookup("dir"))
	_ = v.BindPFlag("seed-days", flags.Lookup("days"))
	_ = v.BindPFlag("seed-per-day", flags.Lookup("per-day"))
	_ = v.BindPFlag("log-level", flags.Lookup("log-level"))

	return cmd
}

func runSeed(ctx context.Context, v *viper.Viper, only []string) error {
	logger, closeLog, err := logging.New(logging.Options{Level: v.GetString("log-level")})
	if err != nil {
		return err
	}
	defer closeLog()

	reg, err := config.LoadRegistry(v.GetString("db-config-path"))
	if err != nil {
		logger.Error("Failed to load registry", zap.Error(err))
		return err
	}

	wanted := map[string]bool{}
	for _, key := range only {
		wanted[key] = true
	}

	dir := v.GetString("local-db-dir")
	now := time.Now().UTC().Truncate(time.Second)
	for _, app := range reg.Applications() {
		if len(wanted) > 0 && !wanted[app.Key] {
			continue
		}

		path := filepath.Join(dir, app.Key+".db")
		spec := database.SeedSpec{
			AppName: app.Key,
			Now:     now,
			Days:    v.GetInt("seed-days"),
			PerDay:  v.GetInt("seed-per-day"),
		}
		n, err := database.SeedFile(ctx, path, spec)
		if err != nil {
			logger.Error("Failed to seed", zap.String("app", app.Key), zap.Error(err))
			return err
		}
		logger.Info("Seeded", zap.String("app", app.Key), zap.String("path", path), zap.Int("rows", n))
	}
	return nil
}
