package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/simplehttp/simplehttp/internal/config"
	"github.com/simplehttp/simplehttp/internal/handler"
	"github.com/simplehttp/simplehttp/internal/server"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "api",
		Short:         "simplehttp - users listing API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "optional .env file to load before reading the environment")

	load := func() (*config.Config, error) {
		return config.LoadFiles(envFile)
	}

	serve := newServeCmd(load)
	root.AddCommand(serve, newPingCmd(load), newUsersCmd(load))

	// Running without a subcommand starts the server.
	root.RunE = serve.RunE

	return root
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := initLogger(cfg, os.Stdout)

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}

			srv := server.New(a.router(), server.Options{
				Port:            cfg.AppPort,
				ReadTimeout:     cfg.ReadTimeout,
				WriteTimeout:    cfg.WriteTimeout,
				ShutdownTimeout: cfg.ShutdownTimeout,
			}, logger)

			// Run can fail before any shutdown hook fires, e.g. when the port is taken.
			defer a.close()
			srv.OnShutdown("dependencies", func(ctx context.Context) error {
				a.close()
				return nil
			})

			logger.Info("starting server",
				"port", cfg.AppPort,
				"env", cfg.AppEnv,
				"driver", cfg.DatabaseDriver,
				"metrics_enabled", cfg.MetricsEnabled,
			)

			return srv.Run(ctx)
		},
	}
}

func newPingCmd(load configLoader) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the database is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := initLogger(cfg, cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("ping database: %s", sanitizeError(err, cfg.DatabaseURL))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "connection timeout")

	return cmd
}

func newUsersCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Print the users listing response once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := initLogger(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			h := handler.NewUsersHandler(store, logger, nil)
			status, body := h.Respond(ctx, http.MethodGet)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(body); err != nil {
				return fmt.Errorf("encode response: %w", err)
			}

			if status != http.StatusOK {
				return fmt.Errorf("users listing failed with status %d", status)
			}
			return nil
		},
	}
}
