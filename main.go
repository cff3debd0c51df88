package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"logportal/config"
	"logportal/database"
	"logportal/handlers"
	"logportal/logging"
	"logportal/notify"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:          "logportal",
		Short:        "Multi-tenant log search portal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Int("port", v.GetInt("port"), "HTTP listen port")
	flags.String("db-config-path", v.GetString("db-config-path"), "application registry file")
	flags.String("deploy-config-path", v.GetString("deploy-config-path"), "deploy override file")
	flags.String("local-db-dir", v.GetString("local-db-dir"), "directory of local SQLite fallbacks")
	flags.String("log-file", v.GetString("log-file"), "rotating log file, empty for console only")
	flags.String("log-level", v.GetString("log-level"), "log level")
	flags.Duration("query-timeout", v.GetDuration("query-timeout"), "per-query timeout, 0 disables")
	flags.Bool("strict", false, "fail when a connection placeholder cannot be resolved")
	_ = v.BindPFlags(flags)
	_ = v.BindPFlag("fail-on-unresolved-db-placeholders", flags.Lookup("strict"))

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), v)
			},
		},
		&cobra.Command{
			Use:   "check-config",
			Short: "Validate the registry and report unresolved connection placeholders",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheckConfig(cmd, v)
			},
		},
	)

	return rootCmd
}

// app is the wired process.
type app struct {
	settings config.Settings
	logger   *zap.Logger
	registry *config.Registry
	store    *config.Store
	resolver *config.Resolver
	closeLog func() error
}

func bootstrap(v *viper.Viper) (*app, error) {
	settings, err := config.LoadSettings(v)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{File: settings.LogFile, Level: settings.LogLevel})
	if err != nil {
		return nil, err
	}

	reg, err := config.LoadRegistry(settings.RegistryPath)
	if err != nil {
		closeLog()
		return nil, err
	}

	knownKey := func(key string) bool {
		_, ok := reg.ByKey(key)
		return ok
	}
	store := config.NewStore(settings.Runtime(), settings.ReloadToken, settings.DeployPath, knownKey)
	loaded, err := store.Load()
	if err != nil {
		closeLog()
		return nil, err
	}
	if loaded {
		logger.Info("Deploy config loaded", zap.String("path", settings.DeployPath))
	}

	return &app{
		settings: settings,
		logger:   logger,
		registry: reg,
		store:    store,
		resolver: config.NewResolver(reg, store, settings.LocalDBDir),
		closeLog: closeLog,
	}, nil
}

func (a *app) checkPlaceholders() error {
	unresolved, err := config.CheckPlaceholders(a.resolver, a.settings.Strict)
	for _, c := range unresolved {
		a.logger.Warn("Unresolved DB placeholder", zap.String("app", c.Key), zap.String("uri", c.URI))
	}
	return err
}

func runServe(ctx context.Context, v *viper.Viper) error {
	a, err := bootstrap(v)
	if err != nil {
		return err
	}
	defer a.closeLog()
	logger := a.logger

	if err := a.checkPlaceholders(); err != nil {
		logger.Error("Refusing to start", zap.Error(err))
		return err
	}

	opts := database.DefaultPoolOptions()
	opts.MaxOpenConns = a.settings.MaxOpenConns
	pools := database.NewPools(opts, logger)
	defer pools.Close()

	executor := database.NewExecutor(a.resolver, pools, a.settings.QueryTimeout, logger)
	sender := notify.NewSender(a.store, logger)

	router := handlers.NewRouter(handlers.Deps{
		Apps:    a.registry,
		Logs:    executor,
		Mailer:  sender,
		Runtime: a.store,
		Logger:  logger,
		Pools:   executor,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(a.settings.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.Int("port", a.settings.Port),
			zap.Int("applications", len(a.registry.Applications())),
			zap.Duration("query_timeout", a.settings.QueryTimeout))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func runCheckConfig(cmd *cobra.Command, v *viper.Viper) error {
	a, err := bootstrap(v)
	if err != nil {
		return err
	}
	defer a.closeLog()
	a.settings.Strict = true

	out := cmd.OutOrStdout()
	for _, application := range a.registry.Applications() {
		info, err := a.resolver.Resolve(application.DisplayName)
		if err != nil {
			return err
		}
		status := "ok"
		if info.Unresolved {
			status = "UNRESOLVED"
		}
		fmt.Fprintf(out, "%-24s %-8s %-10s %s\n",
			application.Key, application.MatchMode, status, config.RedactURI(info.URI))
	}

	return a.checkPlaceholders()
}
