package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "contact-cli",
	Short: "Organization contact discovery and reconciliation",
	Long:  "Crawls registered organization websites for emails and phones, looks organizations up in Google Places, and flags registered contacts that cannot be corroborated.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadEnvFiles()

		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadEnvFiles loads .env then .env.local. Variables already set win.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		if err := godotenv.Load(f); err == nil {
			zap.L().Debug("loaded env file", zap.String("file", f))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
