package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"complaintsync/internal/config"
)

var (
	cfg *config.Config

	flagOutlets string
	flagDryRun  bool
	flagEnvFile string
)

var rootCmd = &cobra.Command{
	Use:   "complaintsync",
	Short: "Copy open partner-portal complaints into a Google Sheet",
	Long: `complaintsync walks the customer-issues inbox of each configured outlet,
turns every complaint into a structured record and appends the open ones
that are not already in the worksheet.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Flags sit above every configuration layer.
		if cmd.Flags().Changed("outlets") {
			os.Setenv("OUTLET_IDS", flagOutlets)
		}
		if cmd.Flags().Changed("dry-run") {
			if flagDryRun {
				os.Setenv("DRY_RUN", "true")
			} else {
				os.Setenv("DRY_RUN", "false")
			}
		}

		var err error
		cfg, err = config.LoadConfig(flagEnvFile)
		if err != nil {
			return err
		}
		return config.InitLogger(cfg.LogLevel, cfg.LogFormat)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOutlets, "outlets", "", "comma separated outlet IDs, overrides OUTLET_IDS")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "log rows instead of appending them")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "dotenv file to load before the environment")
}

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if cfg == nil {
			// Config or logger never came up; cobra already printed the error.
			return 2
		}
		zap.L().Error("run aborted", zap.Error(err))
		_ = zap.L().Sync()
		return 1
	}
	return 0
}

func outletList(ids []string) string {
	return strings.Join(ids, ",")
}
