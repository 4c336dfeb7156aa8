package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/venari/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Venari %s\n", common.GetFullVersion())
	},
}

func commonPrintBanner() {
	common.PrintBanner(common.GetVersion())
}
