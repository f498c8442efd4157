package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/dataset"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/pipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Reconcile registered contacts against scraped and places data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input, _ := cmd.Flags().GetString("input")
		pagesPath, _ := cmd.Flags().GetString("pages")
		mapsPath, _ := cmd.Flags().GetString("maps")
		contactsPath, _ := cmd.Flags().GetString("contacts")
		out, _ := cmd.Flags().GetString("out")

		export, err := loadExport(input)
		if err != nil {
			return err
		}
		pages, err := dataset.ReadPages(pagesPath)
		if err != nil {
			return eris.Wrap(err, "read pages")
		}
		maps := []model.MapsResult{}
		if mapsPath != "" {
			if maps, err = dataset.ReadMaps(mapsPath); err != nil {
				return eris.Wrap(err, "read maps")
			}
		}

		env, err := initPipeline(ctx, "validate", false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, pipeline.KindValidate, pipeline.Input{
			Organizations: export.Organizations,
			Pages:         pages,
			Maps:          maps,
		})
		if err != nil {
			return err
		}

		if contactsPath != "" {
			if err := dataset.WriteContacts(contactsPath, res.Contacts); err != nil {
				return eris.Wrap(err, "write contacts")
			}
		}
		if err := export.WriteReconciled(out, res.Records); err != nil {
			return eris.Wrap(err, "write reconciled")
		}

		zap.L().Info("validation written", zap.String("run_id", res.Run.ID), zap.String("out", out))
		fmt.Fprint(os.Stdout, pipeline.FormatSummary(res.Summary))
		return nil
	},
}

func init() {
	validateCmd.Flags().String("input", "", "organization export (.csv or .xlsx)")
	validateCmd.Flags().String("pages", "scraped_pages.csv", "scraped pages from the crawl command")
	validateCmd.Flags().String("maps", "", "places lookup output from the maps command")
	validateCmd.Flags().String("contacts", "", "optional scraped contacts output")
	validateCmd.Flags().String("out", "flagged_contacts.csv", "reconciled export output")
	_ = validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}
