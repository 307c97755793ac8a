package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"voice-insight/pkg/classifier"
	"voice-insight/pkg/logger"
	"voice-insight/pkg/models"
	"voice-insight/pkg/pipeline"
	"voice-insight/pkg/storage"
)

var (
	outputFormat string
	graphDir     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze one audio file and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "o", "yaml", "output format: yaml or json")
	analyzeCmd.Flags().StringVar(&graphDir, "graph-dir", "", "write charts here instead of the configured graph_dir")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if graphDir != "" {
		cfg.Storage.GraphDir = graphDir
	}
	if outputFormat != "yaml" && outputFormat != "json" {
		return fmt.Errorf("unknown format %q", outputFormat)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	store := storage.NewMemoryStore()
	defer store.Close()
	manager := pipeline.NewManager(cfg, store, classifier.NewRandomClassifier(nil), logger.Get())

	analysis, err := manager.Process(ctx, models.NewUploadedClip(filepath.Base(args[0]), data))
	if err != nil {
		return err
	}
	return writeAnalysis(cmd.OutOrStdout(), outputFormat, analysis)
}

func writeAnalysis(w io.Writer, format string, a *models.Analysis) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(a)
}
