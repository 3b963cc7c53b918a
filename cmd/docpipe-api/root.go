package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "docpipe-api",
	Short: "docpipe-api serves the document conversion api and runs its workers.",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(workerCmd)
}
