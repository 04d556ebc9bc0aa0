package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quizlab/quizd/internal/model"
)

var (
	answerTitle     string
	answerOptions   string
	answerType      string
	answerSkipCache bool
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Answer a single question from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		q := model.Question{
			Title:   answerTitle,
			Options: answerOptions,
			Kind:    model.ParseKind(answerType),
		}

		result, err := env.Engine.Answer(ctx, q, answerSkipCache)
		if err != nil {
			return err
		}

		fmt.Println(result.Answer)
		if result.FromCache {
			fmt.Println("(cached)")
		} else {
			fmt.Printf("confidence=%.2f valid=%v decision=%s elapsed=%s\n",
				result.Confidence, result.Valid, result.Decision, result.Elapsed.Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	answerCmd.Flags().StringVar(&answerTitle, "title", "", "question text (required)")
	answerCmd.Flags().StringVar(&answerOptions, "options", "", "option block, one option per line")
	answerCmd.Flags().StringVar(&answerType, "type", "", "question type: single, multiple, judgement, completion")
	answerCmd.Flags().BoolVar(&answerSkipCache, "skip-cache", false, "bypass the answer cache for this question")
	_ = answerCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(answerCmd)
}
