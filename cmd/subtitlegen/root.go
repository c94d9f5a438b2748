package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subtitlegen",
		Short:         "Generate SRT subtitles from video files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newGUICommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newDoctorCommand())
	rootCmd.AddCommand(newModelsCommand())
	return rootCmd
}
