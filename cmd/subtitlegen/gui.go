package main

import (
	"github.com/spf13/cobra"

	"subtitle-generator/internal/bootstrap"
)

func newGUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Launch the desktop application",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New()
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
}
