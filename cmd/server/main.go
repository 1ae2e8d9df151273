package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/syncwatch-server/internal/app"
	"github.com/vovakirdan/syncwatch-server/internal/auth"
	"github.com/vovakirdan/syncwatch-server/internal/config"
	logpkg "github.com/vovakirdan/syncwatch-server/internal/log"
	"github.com/vovakirdan/syncwatch-server/internal/store/sqlite"
)

var (
	configPath string
	overrides  config.Config
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "syncwatch",
		Short:        "Watch-together room server",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the room server",
		RunE:  runServe,
	}
	for _, cmd := range []*cobra.Command{root, serve} {
		cmd.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
		cmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
		cmd.Flags().DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	}

	root.AddCommand(serve, adminCmd())
	return root
}

func loadConfig() (config.Config, error) {
	boot := logpkg.New("info")
	cfg, path, err := config.Load(boot, configPath)
	if err != nil {
		return cfg, err
	}
	cfg.UpdateFrom(overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	boot.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sink := logpkg.NewSink(cfg.LogPath)
	logger := logpkg.New(cfg.LogLevel, sink)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger, sink)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting syncwatch server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		_ = sink.Flush()
		return err
	}
	logger.Info().Msg("server stopped")
	return sink.Flush()
}

func adminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage operator accounts",
	}

	var password string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an unapproved admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			generated := password == ""
			if generated {
				password = shortuuid.New()
			}
			err := withAuth(cmd.Context(), func(ctx context.Context, svc *auth.Service) error {
				return svc.AddAdmin(ctx, args[0], password)
			})
			if err != nil {
				return err
			}
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s with password %s\n", args[0], password)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[0])
			}
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "account password (generated when empty)")

	approve := &cobra.Command{
		Use:   "approve <username>",
		Short: "Allow an admin account to log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withAuth(cmd.Context(), func(ctx context.Context, svc *auth.Service) error {
				return svc.Approve(ctx, args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %s\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAuth(cmd.Context(), func(ctx context.Context, svc *auth.Service) error {
				admins, err := svc.Admins(ctx)
				if err != nil {
					return err
				}
				for _, a := range admins {
					status := "pending"
					if a.Approved {
						status = "approved"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-8s %s\n", a.Username, status, a.CreatedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}

	admin.AddCommand(add, approve, list)
	return admin
}

func withAuth(ctx context.Context, fn func(context.Context, *auth.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return fn(ctx, auth.NewService(st, app.JWTConfig(cfg)))
}
