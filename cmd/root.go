package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quizlab/quizd/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "quizd",
	Short: "LLM-backed quiz answering service",
	Long:  "Answers multiple-choice, judgement, and fill-in questions via a chat model, with format validation, confidence self-scoring, and search-augmented escalation for low-confidence answers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
