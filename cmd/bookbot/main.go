package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookbot/internal/config"
)

// restartExitCode tells the supervisor the process ended on its uptime
// budget rather than on a failure or a signal.
const restartExitCode = 3

var errRestartRequested = errors.New("restart requested")

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "bookbot",
		Short:         "post generated book continuations to chats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRunCmd(), newCurateCmd(), newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRestartRequested) {
			logutil.GetLogger(context.Background()).Info("exiting for scheduled restart")
			os.Exit(restartExitCode)
		}
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, errors.New("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}
