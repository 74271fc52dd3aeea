// Package main provides the entry point for the promptforge CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/promptforge/promptforge/internal/logging"
)

// projectDir holds the stage plan, config, and run history.
const projectDir = ".promptforge"

var (
	cfgFile string
	debug   bool
	rootCmd = &cobra.Command{
		Use:           "promptforge",
		Short:         "promptforge turns an under-specified prompt into a complete one through diagnosis, clarification, and integration",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// Execute runs the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", filepath.Join(projectDir, "config.yaml"), "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("bind config flag: %w", err)
	}
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Init(debug)
		// Optional .env for LLM_* variables.
		_ = godotenv.Load()
	}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(stagesCmd())
	rootCmd.AddCommand(runsCmd())
	return rootCmd.Execute()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}
