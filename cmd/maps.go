package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/dataset"
	"github.com/sells-group/contact-cli/internal/pipeline"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Look organizations up in Google Places",
	Long:  "Searches Google Places for every organization with a website, confirming the street through Mapy.cz when a key is configured.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		out, _ := cmd.Flags().GetString("out")

		export, err := loadExport(input)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "maps", true)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, pipeline.KindMaps, pipeline.Input{Organizations: export.Organizations})
		if err != nil {
			return err
		}
		if err := dataset.WriteMaps(out, res.Maps); err != nil {
			return eris.Wrap(err, "write maps")
		}

		zap.L().Info("places lookup written",
			zap.String("run_id", res.Run.ID),
			zap.Int("rows", len(res.Maps)),
			zap.String("maps", out),
		)
		fmt.Fprint(os.Stdout, pipeline.FormatSummary(res.Summary))
		return nil
	},
}

func init() {
	mapsCmd.Flags().String("input", "", "organization export (.csv or .xlsx)")
	mapsCmd.Flags().String("out", "maps_output.csv", "places lookup output")
	_ = mapsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(mapsCmd)
}
