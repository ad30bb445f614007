package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "sheetgate",
	Short:         "Sheetgate acquires spreadsheet data for reconciliation imports.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, checkKeyCmd, versionCmd)
}
