package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/okian/sentivision/internal/adapters/repository"
	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/config"
	"github.com/okian/sentivision/pkg/logger"
)

type commandContext struct {
	configFlag *string
	logOutput  io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logOutput: os.Stderr}
}

// ensureConfig loads the configuration once and initializes the global
// logger from it.
func (c *commandContext) ensureConfig(ctx context.Context) (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(ctx, path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := logger.InitWith(c.logOutput, cfg.LogFormat); err != nil {
			c.configErr = fmt.Errorf("init logging: %w", err)
			return
		}
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
			_ = logger.SetLevelString("info")
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// openStore connects to the configured database.
func (c *commandContext) openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	store, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN,
		repository.WithMaxOpenConns(cfg.Database.MaxOpenConns),
		repository.WithLogger(logger.Named("store")),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// withService runs fn with a service over a freshly opened store and
// closes the store afterwards.
func (c *commandContext) withService(ctx context.Context, fn func(*config.Config, *service.Service) error) error {
	cfg, err := c.ensureConfig(ctx)
	if err != nil {
		return err
	}
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Warn(ctx, "close store", logger.Error(err))
		}
	}()
	svc := service.New(store,
		service.WithLogger(logger.Named("service")),
		service.WithClientsFile(cfg.ClientsFile),
		service.WithSettingsFile(cfg.SettingsFile),
		service.WithPageSize(cfg.PageSize),
		service.WithMigrateOnStart(cfg.MigrateOnStart),
	)
	return fn(cfg, svc)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	serve := newServeCommand(ctx)
	rootCmd := &cobra.Command{
		Use:           "sentivision",
		Short:         "Media sentiment dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (defaults to $"+config.EnvConfigPath+")")

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newClientsCommand(ctx))
	return rootCmd
}
