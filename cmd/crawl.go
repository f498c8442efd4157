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

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl registered websites for emails and phone numbers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		out, _ := cmd.Flags().GetString("out")

		export, err := loadExport(input)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "crawl", false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, pipeline.KindCrawl, pipeline.Input{Organizations: export.Organizations})
		if err != nil {
			return err
		}
		if err := dataset.WritePages(out, res.Pages); err != nil {
			return eris.Wrap(err, "write pages")
		}

		zap.L().Info("crawl written", zap.String("run_id", res.Run.ID), zap.String("pages", out))
		fmt.Fprint(os.Stdout, pipeline.FormatSummary(res.Summary))
		return nil
	},
}

func init() {
	crawlCmd.Flags().String("input", "", "organization export (.csv or .xlsx)")
	crawlCmd.Flags().String("out", "scraped_pages.csv", "scraped pages output")
	_ = crawlCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(crawlCmd)
}
