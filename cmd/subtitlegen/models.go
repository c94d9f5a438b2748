package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subtitle-generator/internal/bootstrap"
)

func newModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List and download speech model tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, 5)
			for _, model := range app.GetModelCatalog() {
				state := "missing"
				if model.Downloaded {
					state = model.LocalPath
				}
				rows = append(rows, []string{
					string(model.Tier),
					model.SizeLabel,
					model.Description,
					state,
				})
			}

			fmt.Println(renderTable([]string{"Tier", "Size", "Description", "Weights"}, rows))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "download <tier>",
		Short: "Download weights for one model tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New()
			if err != nil {
				return err
			}

			settings, err := app.DownloadModel(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Downloaded %s weights into %s\n", settings.ModelTier, settings.ModelsDir)
			return nil
		},
	})

	return cmd
}
