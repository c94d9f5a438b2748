package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"subtitle-generator/internal/config"
	"subtitle-generator/internal/diagnostics"
	"subtitle-generator/internal/domain"
)

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and configured directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.NewTOMLStore(config.DefaultSettingsPath())
			settings, err := store.Load()
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			report := diagnostics.NewChecker().Run(settings)

			colorize := isatty.IsTerminal(os.Stdout.Fd())
			rows := make([][]string, 0, len(report.Items))
			for _, item := range report.Items {
				rows = append(rows, []string{
					item.Name,
					renderStatus(item.Status, colorize),
					item.Message,
					item.Hint,
				})
			}

			fmt.Println(renderTable([]string{"Check", "Status", "Message", "Hint"}, rows))
			if report.HasFailures {
				return fmt.Errorf("diagnostics reported failures")
			}
			return nil
		},
	}
}

func renderStatus(status domain.DiagnosticStatus, colorize bool) string {
	label := strings.ToUpper(string(status))
	if !colorize {
		return label
	}
	if status == domain.DiagnosticStatusPass {
		return text.FgGreen.Sprint(label)
	}
	return text.FgRed.Sprint(label)
}
