package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voice-insight/pkg/config"
	"voice-insight/pkg/logger"
	"voice-insight/pkg/storage"
)

var rootCmd = &cobra.Command{
	Use:   "voice-insight",
	Short: "Audio upload analysis service",
	Long: `voice-insight - computes cepstral features from an uploaded audio clip
and reports emotion, gender, energy and stress labels with one bar chart each.

Configuration is read from defaults, a .env file, the YAML file named by
VOICE_CONFIG and VOICE_* environment variables, in that order.

Examples:
  # Serve the upload page on :8080
  voice-insight serve

  # Analyze a file offline and print the result as JSON
  voice-insight analyze take.wav --format json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

// setup loads configuration and initializes the global logger.
func setup(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ensureDirs(cfg *config.Config) error {
	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.GraphDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func openStore(cfg *config.Config) (storage.AnalysisStore, error) {
	if cfg.Storage.Path == "" {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewDiskStore(cfg.Storage.Path)
}
