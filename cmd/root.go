// Package cmd implements the h5shard command line.
package cmd

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robert-malhotra/h5shard/internal/config"
	"github.com/robert-malhotra/h5shard/internal/logging"
	"github.com/robert-malhotra/h5shard/shard"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewRootCommand returns the h5shard command with every subcommand
// attached.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{cfg: config.Default(), stdout: stdout, stderr: stderr}
	rc := &cobra.Command{
		Use:   "h5shard",
		Short: "Read datasets split across several HDF5 files as one.",
		Long: `h5shard reads datasets that an upstream producer split across
several HDF5 files and prints them as if they were stored in one.

The file set is given with --files as an explicit list, or with --path as
either a single file or a pattern with one integer slot such as
"out_%03d.h5" together with --count. Every option can also be set with an
H5SHARD_ environment variable (H5SHARD_LOG_LEVEL for --log-level) or in
the file named by --config.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load(viper.New(), cmd.Flags())
		},
	}
	c.cfg.Flags(rc.PersistentFlags())

	rc.AddCommand(newLsCommand(c))
	rc.AddCommand(newAttrsCommand(c))
	rc.AddCommand(newAttrCommand(c))
	rc.AddCommand(newGetCommand(c))
	rc.AddCommand(newInfoCommand(c))
	rc.AddCommand(newStatCommand(c))
	rc.AddCommand(newTreeCommand(c))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// cli is the state shared by the subcommands.
type cli struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

// reader validates the configuration and opens a Reader over the set.
func (c *cli) reader() (*shard.Reader, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(c.stderr, c.cfg.LogLevel, c.cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return shard.New(c.cfg.Spec(),
		shard.WithParallel(c.cfg.Parallel),
		shard.WithProgress(c.cfg.Progress),
		shard.WithProgressSink(shard.BarSink(c.stderr)),
		shard.WithWorkers(c.cfg.Workers),
		shard.WithLogger(logger),
	)
}

// withReader runs fn with a Reader that is closed afterwards.
func (c *cli) withReader(fn func(r *shard.Reader) error) error {
	r, err := c.reader()
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
