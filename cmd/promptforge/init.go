package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/stage"
)

const defaultConfigYAML = `llm:
  model: hf.co/unsloth/gemma-3n-E4B-it-GGUF:Q4_K_M
  base_url: http://localhost:11434/v1
  temperature: 0.7
  max_tokens: 1000
  timeout: 2m
retry:
  max_attempts: 4
  initial_backoff: 1s
  max_elapsed: 1m
`

const sampleInputPrompt = "幫我規劃旅行\n"

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a promptforge project",
		Long:  "Initialize a promptforge project: create the .promptforge directory with a default config, the stage plan, and editable stage templates.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().Str("dir", projectDir).Msg("creating project directory")
			if err := os.MkdirAll(projectDir, 0o755); err != nil {
				return fmt.Errorf("create project dir: %w", err)
			}

			if err := stage.WriteDefaults(projectDir); err != nil {
				return fmt.Errorf("install stage plan: %w", err)
			}

			configPath := filepath.Join(projectDir, "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Msg("config.yaml already exists, skipping")
			} else {
				log.Info().Str("path", configPath).Msg("installing default config")
				if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
					return fmt.Errorf("write default config: %w", err)
				}
			}

			inputPath := "input_prompt.txt"
			if _, err := os.Stat(inputPath); os.IsNotExist(err) {
				log.Info().Str("path", inputPath).Msg("installing sample input prompt")
				if err := os.WriteFile(inputPath, []byte(sampleInputPrompt), 0o644); err != nil {
					return fmt.Errorf("write sample input: %w", err)
				}
			}

			fmt.Println("promptforge initialized; edit input_prompt.txt and run `promptforge run`")
			return nil
		},
	}
}
