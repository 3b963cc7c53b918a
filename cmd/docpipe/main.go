package main

import (
	"os"

	"github.com/docpipe/docpipe/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	command := NewDocpipeCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewDocpipeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docpipe [flags] [options]",
		Short: "docpipe uploads documents for PDF conversion and fetches the results.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdUpload())
	cmd.AddCommand(cli.NewCmdStatus())
	cmd.AddCommand(cli.NewCmdMetadata())
	cmd.AddCommand(cli.NewCmdDownload())
	cmd.AddCommand(cli.NewCmdWatch())

	return cmd
}
