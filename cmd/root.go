package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/omnidispatch/app"
	"github.com/kilianp07/omnidispatch/config"
	"github.com/kilianp07/omnidispatch/infra/logger"
)

var (
	cfgPath string
	envPath string
)

var rootCmd = &cobra.Command{
	Use:               "omnidispatch",
	Short:             "Emergency dispatch coordination service",
	PersistentPreRunE: loadEnv,
	RunE:              run,
	SilenceUsage:      true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP and websocket API",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "dotenv file holding API keys")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadEnv reads the dotenv file when present. Variables already set in the
// environment win.
func loadEnv(*cobra.Command, []string) error {
	if envPath == "" {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
