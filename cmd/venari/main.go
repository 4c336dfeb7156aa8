package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
)

var (
	configFiles []string
	jsonOutput  bool

	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "venari",
	Short: "Venari candidate sourcing pipeline",
	Long:  `Venari sources, enriches, and scores talent candidates, and manages the review workflow that promotes them to a shortlist.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real credentials usually arrive via environment
		_ = godotenv.Load()

		paths := configFiles
		if len(paths) == 0 {
			if _, err := os.Stat("venari.toml"); err == nil {
				paths = []string{"venari.toml"}
			}
		}

		var err error
		config, err = common.LoadFromFiles(paths...)
		if err != nil {
			return err
		}

		logger = common.InitLogger(config)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	common.LoadVersionFromFile()

	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil,
		"Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit structured JSON output")

	rootCmd.AddCommand(recruitingCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}

// fatal prints the error in red and exits 1
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "\033[31mError: %v\033[0m\n", err)
	os.Exit(1)
}
