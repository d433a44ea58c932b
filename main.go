package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"queuebot/internal/bot"
	"queuebot/internal/common"
	"queuebot/internal/config"
	"queuebot/internal/queue"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	// The moderation log timezone may be loaded on hosts without a zoneinfo database
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("queuebot stopped")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {

	var envFile, logLevel, logFormat string

	// Flags win over the environment
	load := func() (config.Config, error) {
		cfg, err := config.Load(envFile)
		if err != nil {
			return cfg, err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		if err := common.SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	rootCmd := &cobra.Command{
		Use:           "queuebot",
		Short:         "Discord community bot running a game queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file seeding the environment, ignored when missing")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "trace, debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "console or json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			queueBot, err := bot.CreateBot(cfg)
			if err != nil {
				return fmt.Errorf("could not create discord bot: %w", err)
			}
			defer func() {
				if err := queueBot.Close(); err != nil {
					log.Error().Err(err).Msg("Could not close the bot cleanly")
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return queueBot.Run(ctx)
		},
	}
	rootCmd.AddCommand(runCmd)

	queueCmd := &cobra.Command{Use: "queue", Short: "Inspect the persisted queue"}
	queueListCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the queue in serving order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := queue.OpenStore(cfg.QueueDbDriver, cfg.QueueDsn())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "The queue is empty")
				return nil
			}
			for i, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d. %-32s %-10s %s joined %s\n",
					i+1, entry.DisplayName, entry.Priority, entry.ParticipantId, entry.JoinedAt.UTC().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	queueCmd.AddCommand(queueListCmd)
	rootCmd.AddCommand(queueCmd)

	return rootCmd
}
