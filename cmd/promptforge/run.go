package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/promptforge/promptforge/internal/collector"
	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/history"
	"github.com/promptforge/promptforge/internal/openaiapi"
	"github.com/promptforge/promptforge/internal/pipeline"
	"github.com/promptforge/promptforge/internal/stage"
)

func runCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the refinement pipeline over the input prompt file",
		Long: "Run the refinement pipeline: diagnosis, an interactive clarification " +
			"interview, and integration. The output file is written only when the " +
			"whole run succeeds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			stages, err := stage.Load(projectDir)
			if err != nil {
				return err
			}
			input, err := readInputPrompt(inputPath)
			if err != nil {
				return err
			}

			client, err := openaiapi.NewClient(openaiapi.Config{
				Model:          cfg.LLM.Model,
				BaseURL:        cfg.LLM.BaseURL,
				APIKey:         cfg.LLM.APIKey,
				APIKeyEnv:      cfg.LLM.APIKeyEnv,
				Temperature:    cfg.LLM.Temperature,
				MaxTokens:      cfg.LLM.MaxTokens,
				Timeout:        cfg.LLM.Timeout,
				MaxAttempts:    cfg.Retry.MaxAttempts,
				InitialBackoff: cfg.Retry.InitialBackoff,
				MaxElapsed:     cfg.Retry.MaxElapsed,
			}, nil)
			if err != nil {
				return err
			}

			runID := newRunID()
			sink := pipeline.NopSink()
			var store *history.Store
			if !cfg.History.Disabled && !noHistory {
				db, closeFn, err := openDB()
				if err != nil {
					return err
				}
				defer closeFn()
				store = history.NewStore(db)
				if err := store.CreateRun(ctx, runID, input); err != nil {
					return err
				}
				sink = store
			}

			answers := collector.New(cmd.InOrStdin(), cmd.OutOrStdout())
			runner := pipeline.NewRunner(client, stages, answers,
				pipeline.WithSink(sink),
				pipeline.WithRunID(runID),
			)

			log.Info().Str("run", runID).Int("stages", len(stages)).Msg("pipeline starting")
			output, err := runner.Run(ctx, input)
			if err != nil {
				if store != nil {
					if ferr := store.FailRun(ctx, runID, err.Error()); ferr != nil {
						log.Warn().Err(ferr).Msg("run failure not recorded")
					}
				}
				return err
			}
			if store != nil {
				if ferr := store.FinishRun(ctx, runID, output); ferr != nil {
					log.Warn().Err(ferr).Msg("run result not recorded")
				}
			}

			if err := os.WriteFile(outputPath, []byte(output+"\n"), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			log.Info().Str("run", runID).Str("path", outputPath).Msg("output written")
			printOutput(cmd, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "input_prompt.txt", "input prompt file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "output_prompt.txt", "output prompt file")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this run")
	return cmd
}

func readInputPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input prompt: %w", err)
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return "", fmt.Errorf("input prompt file is empty: %s", path)
	}
	return input, nil
}

// printOutput shows the refined prompt, rendered as markdown when stdout is
// a terminal.
func printOutput(cmd *cobra.Command, output string) {
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err == nil {
			if rendered, rerr := r.Render("# Refined prompt\n\n" + output); rerr == nil {
				fmt.Fprint(out, rendered)
				return
			}
		}
	}
	fmt.Fprintln(out, output)
}
