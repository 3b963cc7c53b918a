package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/docpipe/docpipe/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// WatchOptions are shared by watch and upload --watch.
type WatchOptions struct {
	interval         time.Duration
	statusAttempts   int
	metadataAttempts int
	downloadDir      string
}

func (o *WatchOptions) Bind(fs *pflag.FlagSet) {
	fs.DurationVar(&o.interval, "interval", 0, "Polling interval, defaults to the config file or 2s")
	fs.IntVar(&o.statusAttempts, "status-attempts", 0, "Maximum number of status polls")
	fs.IntVar(&o.metadataAttempts, "metadata-attempts", 0, "Maximum number of metadata polls")
	fs.StringVarP(&o.downloadDir, "download-dir", "d", "", "Download the PDF into this directory once the conversion completed")
}

func (o *WatchOptions) pollerOptions() []client.PollerOption {
	opts := []client.PollerOption{}
	if o.interval > 0 {
		opts = append(opts, client.WithInterval(o.interval))
	}
	if o.statusAttempts > 0 {
		opts = append(opts, client.WithStatusMaxAttempts(o.statusAttempts))
	}
	if o.metadataAttempts > 0 {
		opts = append(opts, client.WithMetadataMaxAttempts(o.metadataAttempts))
	}
	return opts
}

func (o *WatchOptions) watch(ctx context.Context, out io.Writer, c *client.Client, p *client.Poller, id string) error {
	var (
		conversion = client.ConversionPolling
		metadata   = client.MetadataPolling
		offered    bool
	)

	final := p.Watch(ctx, id, func(s client.State) {
		if s.Conversion.Outcome != conversion {
			conversion = s.Conversion.Outcome
			fmt.Fprintf(out, "conversion: %s\n", conversion)
		}
		if s.Metadata.Outcome != metadata {
			metadata = s.Metadata.Outcome
			fmt.Fprintf(out, "metadata: %s\n", metadata)
			if metadata == client.MetadataAvailable {
				props := s.Metadata.Properties
				_ = printResource(out, tableFormat, props, func(w *tabwriter.Writer) { printMetadataTable(w, props) })
			}
		}
		if s.DownloadOffered() && !offered {
			offered = true
			fmt.Fprintf(out, "download offered: docpipe download %s\n", id)
		}
	})

	switch final.Conversion.Outcome {
	case client.ConversionFailed:
		if final.Conversion.Status != nil && final.Conversion.Status.Error != nil {
			return fmt.Errorf("conversion of %s failed: %s", id, *final.Conversion.Status.Error)
		}
		return fmt.Errorf("conversion of %s failed", id)
	case client.ConversionCanceled:
		return ctx.Err()
	case client.ConversionPollingStopped:
		if final.Conversion.LastErr != nil {
			return fmt.Errorf("gave up polling %s: %w", id, final.Conversion.LastErr)
		}
		return nil
	}

	if o.downloadDir == "" || !final.DownloadEnabled() {
		return nil
	}
	path, err := downloadTo(ctx, c, id, o.downloadDir, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s\n", path)
	return nil
}

type WatchCmdOptions struct {
	GlobalOptions
	WatchOptions
}

func DefaultWatchOptions() *WatchCmdOptions {
	return &WatchCmdOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdWatch() *cobra.Command {
	o := DefaultWatchOptions()
	cmd := &cobra.Command{
		Use:          "watch FILE_ID",
		Short:        "Poll conversion status and metadata until both settle",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.GlobalOptions.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd, args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *WatchCmdOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.WatchOptions.Bind(fs)
}

func (o *WatchCmdOptions) Run(cmd *cobra.Command, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	return o.watch(commandContext(cmd), cmd.OutOrStdout(), c, o.Poller(c, o.pollerOptions()...), args[0])
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
