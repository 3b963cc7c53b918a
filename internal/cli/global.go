package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/docpipe/docpipe/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	jsonFormat  = "json"
	yamlFormat  = "yaml"
	tableFormat = "table"
)

var legalOutputTypes = []string{tableFormat, jsonFormat, yamlFormat}

type GlobalOptions struct {
	ConfigFilePath string
	ServerUrl      string

	config *client.Config
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultConfigPath(),
		ServerUrl:      client.DefaultServer,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file")
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server, overrides the config file")
}

// Complete loads the config file. An explicit --server-url wins over the file.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg, err := client.LoadConfig(o.ConfigFilePath)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("server-url"); f != nil && f.Changed {
		cfg.Service.Server = o.ServerUrl
	} else {
		o.ServerUrl = cfg.Service.Server
	}
	o.config = cfg
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if o.config == nil {
		return fmt.Errorf("options were not completed")
	}
	return o.config.Validate()
}

func (o *GlobalOptions) Client() (*client.Client, error) {
	return client.NewFromConfig(o.config)
}

func (o *GlobalOptions) Poller(c *client.Client, extra ...client.PollerOption) *client.Poller {
	opts := append(o.config.PollerOptions(), extra...)
	return client.NewPoller(c, opts...)
}

type OutputOptions struct {
	Output string
}

func (o *OutputOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", tableFormat, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *OutputOptions) Validate() error {
	if !slices.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}
