package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docpipe/docpipe/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DownloadOptions struct {
	GlobalOptions
	dir  string
	file string
}

func DefaultDownloadOptions() *DownloadOptions {
	return &DownloadOptions{
		GlobalOptions: DefaultGlobalOptions(),
		dir:           ".",
	}
}

func NewCmdDownload() *cobra.Command {
	o := DefaultDownloadOptions()
	cmd := &cobra.Command{
		Use:          "download FILE_ID",
		Short:        "Download the converted PDF, or the original when no PDF exists",
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

func (o *DownloadOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.dir, "dir", "d", o.dir, "Directory to save the file into, using the name sent by the server")
	fs.StringVarP(&o.file, "file", "f", o.file, "Exact path to save the file to, overrides --dir")
}

func (o *DownloadOptions) Run(cmd *cobra.Command, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	path, err := downloadTo(commandContext(cmd), c, args[0], o.dir, o.file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
	return nil
}

// downloadTo streams into a temporary file next to the target and renames it
// once the body was fully received.
func downloadTo(ctx context.Context, c *client.Client, id, dir, file string) (string, error) {
	if file != "" {
		dir = filepath.Dir(file)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".docpipe-download-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	d, err := c.Download(ctx, id, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", id, err)
	}

	target := file
	if target == "" {
		name := filepath.Base(d.FileName)
		if name == "" || name == "." || name == "/" {
			name = id
		}
		target = filepath.Join(dir, name)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("saving %s: %w", target, err)
	}
	return target, nil
}
