package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/dataset"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/pipeline"
)

// Output file names written by the run command.
const (
	pagesFile    = "scraped_pages.csv"
	mapsFile     = "maps_output.csv"
	contactsFile = "scraped_contacts.csv"
	flaggedFile  = "flagged_contacts.csv"
	reportFile   = "report.yaml"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl, look up and reconcile in one run",
	Long:  "Runs the crawl, the places lookup and validation back to back, writing every table and a YAML report to the output directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		outDir, _ := cmd.Flags().GetString("out-dir")
		pagesInput, _ := cmd.Flags().GetString("pages-input")
		mapsInput, _ := cmd.Flags().GetString("maps-input")
		skipMaps, _ := cmd.Flags().GetBool("skip-maps")

		export, err := loadExport(input)
		if err != nil {
			return err
		}

		in := pipeline.Input{Organizations: export.Organizations}
		if pagesInput != "" {
			if in.Pages, err = dataset.ReadPages(pagesInput); err != nil {
				return eris.Wrap(err, "read pages")
			}
		}
		switch {
		case mapsInput != "":
			if in.Maps, err = dataset.ReadMaps(mapsInput); err != nil {
				return eris.Wrap(err, "read maps")
			}
		case skipMaps:
			in.Maps = []model.MapsResult{}
		}

		env, err := initPipeline(ctx, "run", in.Maps == nil)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, pipeline.KindRun, in)
		if err != nil {
			return err
		}

		outputs, err := writeRunOutputs(outDir, export, res, pagesInput == "", in.Maps == nil)
		if err != nil {
			return err
		}
		reportPath := filepath.Join(outDir, reportFile)
		if err := pipeline.WriteReport(reportPath, pipeline.NewReport(res.Run, outputs)); err != nil {
			return err
		}

		zap.L().Info("run written", zap.String("run_id", res.Run.ID), zap.String("report", reportPath))
		fmt.Fprint(os.Stdout, pipeline.FormatSummary(res.Summary))
		return nil
	},
}

// writeRunOutputs writes the tables a run produced into dir and returns
// them keyed by table name. Pages and maps are only written when this run
// produced them.
func writeRunOutputs(dir string, export *dataset.Export, res *pipeline.Output, pages, maps bool) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "create output dir")
	}
	outputs := make(map[string]string)

	if pages {
		p := filepath.Join(dir, pagesFile)
		if err := dataset.WritePages(p, res.Pages); err != nil {
			return nil, eris.Wrap(err, "write pages")
		}
		outputs["pages"] = p
	}
	if maps && res.Maps != nil {
		p := filepath.Join(dir, mapsFile)
		if err := dataset.WriteMaps(p, res.Maps); err != nil {
			return nil, eris.Wrap(err, "write maps")
		}
		outputs["maps"] = p
	}

	p := filepath.Join(dir, contactsFile)
	if err := dataset.WriteContacts(p, res.Contacts); err != nil {
		return nil, eris.Wrap(err, "write contacts")
	}
	outputs["contacts"] = p

	p = filepath.Join(dir, flaggedFile)
	if err := export.WriteReconciled(p, res.Records); err != nil {
		return nil, eris.Wrap(err, "write reconciled")
	}
	outputs["flagged"] = p

	return outputs, nil
}

func init() {
	runCmd.Flags().String("input", "", "organization export (.csv or .xlsx)")
	runCmd.Flags().String("out-dir", "output", "directory for every output table and the report")
	runCmd.Flags().String("pages-input", "", "reuse scraped pages instead of crawling")
	runCmd.Flags().String("maps-input", "", "reuse a places lookup output instead of querying")
	runCmd.Flags().Bool("skip-maps", false, "reconcile against scraped contacts only")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}
