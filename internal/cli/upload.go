package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type UploadOptions struct {
	GlobalOptions
	WatchOptions
	follow bool
}

func DefaultUploadOptions() *UploadOptions {
	return &UploadOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdUpload() *cobra.Command {
	o := DefaultUploadOptions()
	cmd := &cobra.Command{
		Use:          "upload FILE",
		Short:        "Upload a .docx document for conversion to PDF",
		Example:      "upload ./report.docx --watch --download-dir ./out",
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

func (o *UploadOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.WatchOptions.Bind(fs)

	fs.BoolVarP(&o.follow, "watch", "w", false, "Poll conversion status and metadata after the upload")
}

func (o *UploadOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", args[0])
	}
	return nil
}

func (o *UploadOptions) Run(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	result, err := c.Upload(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", args[0], err)
	}
	fmt.Fprintf(out, "%s\nfile id: %s\n", result.Message, result.FileID)

	if !o.follow {
		return nil
	}
	return o.watch(ctx, out, c, o.Poller(c, o.pollerOptions()...), result.FileID)
}
