package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/stage"
)

var phaseStyle = lipgloss.NewStyle().Faint(true)

func stagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Show the validated stage plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := stage.Load(projectDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, s := range stages {
				marker := " "
				if s.Interactive {
					marker = "*"
				}
				line := fmt.Sprintf("%d. %s %-16s %s", i+1, marker, s.Name, phaseStyle.Render(string(s.Phase)))
				if len(s.RequiredInputs) > 0 {
					line += phaseStyle.Render("  <- " + strings.Join(s.RequiredInputs, ", "))
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, phaseStyle.Render("* interactive stage"))
			return nil
		},
	}
}
