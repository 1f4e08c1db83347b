package main

import (
	"fmt"
	"os"

	"github.com/MarcoPoloResearchLab/modelhub/internal/config"
	"github.com/MarcoPoloResearchLab/modelhub/internal/ids"
	"github.com/MarcoPoloResearchLab/modelhub/internal/logging"
	"github.com/MarcoPoloResearchLab/modelhub/internal/seed"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSeedCommand() *cobra.Command {
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import authors, models, reviews and feedback samples from a JSON fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(appConfig.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			db, closeDB, err := openDatabase(appConfig, logger)
			if err != nil {
				return err
			}
			defer closeDB()

			importer, err := seed.NewImporter(seed.ImporterConfig{
				Database:   db,
				IDProvider: ids.NewUUIDProvider(),
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			file, err := os.Open(fixturePath)
			if err != nil {
				return err
			}
			defer file.Close()

			fixture, err := importer.Decode(file)
			if err != nil {
				return err
			}
			summary, err := importer.Import(cmd.Context(), fixture)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d authors, %d models, %d reviews, %d samples (%d skipped)\n",
				summary.Authors, summary.Models, summary.Reviews, summary.Feedback, summary.Skipped)
			return err
		},
	}
	cmd.Flags().StringVar(&fixturePath, "file", "", "Path to the JSON fixture")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
