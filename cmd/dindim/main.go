package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pcarvalho/dindim/internal/common"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "dindim",
		Short: "💸 Bank statement import pipeline",
		Long: `dindim ingests bank statement exports (CSV, XLSX, PDF, OFX),
normalizes Brazilian and international formats into canonical transactions,
flags probable duplicates, and commits reviewed batches into your budget.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/dindim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(confirmCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(budgetsCmd())
	rootCmd.AddCommand(accountsCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/dindim", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DINDIM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	return setupLogging()
}

func setupLogging() error {
	var level slog.Level
	switch viper.GetString("logging.level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("%w: log level %q", common.ErrInvalidConfig, viper.GetString("logging.level"))
	}

	format := viper.GetString("logging.format")
	switch format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, format)
	}

	return common.SetupLogger(level, format)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("dindim %s\n", version)
		},
	}
}
