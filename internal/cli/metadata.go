package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/docpipe/docpipe/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type MetadataOptions struct {
	GlobalOptions
	OutputOptions
}

func DefaultMetadataOptions() *MetadataOptions {
	return &MetadataOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdMetadata() *cobra.Command {
	o := DefaultMetadataOptions()
	cmd := &cobra.Command{
		Use:          "metadata FILE_ID",
		Short:        "Display the properties extracted from a document",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd, args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *MetadataOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.OutputOptions.Bind(fs)
}

func (o *MetadataOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return o.OutputOptions.Validate()
}

func (o *MetadataOptions) Run(cmd *cobra.Command, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	props, err := c.GetMetadata(commandContext(cmd), args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("no metadata available for %s yet", args[0])
		}
		return fmt.Errorf("reading metadata of %s: %w", args[0], err)
	}
	return printResource(cmd.OutOrStdout(), o.Output, map[string]any{"metadata": props}, func(w *tabwriter.Writer) {
		printMetadataTable(w, props)
	})
}
