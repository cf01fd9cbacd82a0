// Package cli implements the command-line interface for shardsize.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// globalOptions holds the connection flags shared by every report
// command.
type globalOptions struct {
	verbose bool
	debug   bool

	influxHost     string
	influxPort     int
	influxUser     string
	influxPassword string
	influxDB       string
	influxTimeout  time.Duration

	sshHost     string
	sshPort     int
	sshUser     string
	sshPassword string
	sshTimeout  time.Duration
}

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:     "shardsize",
		Short:   "Report disk space consumed by InfluxDB storage shards",
		Version: version,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "print status messages")
	pf.BoolVarP(&opts.debug, "debug", "d", false, "print debug messages")
	pf.StringVar(&opts.influxHost, "influx-host", "127.0.0.1", "InfluxDB host")
	pf.IntVar(&opts.influxPort, "influx-port", 8086, "InfluxDB port")
	pf.StringVar(&opts.influxUser, "influx-user", "admin", "InfluxDB user")
	pf.StringVar(&opts.influxPassword, "influx-password", "", "InfluxDB password")
	pf.StringVar(&opts.influxDB, "influx-db", "", "restrict the report to one database")
	pf.DurationVar(&opts.influxTimeout, "influx-timeout", 0, "InfluxDB query timeout (0 means none)")
	pf.StringVar(&opts.sshHost, "ssh-host", "", "SSH host (defaults to the InfluxDB host)")
	pf.IntVar(&opts.sshPort, "ssh-port", 22, "SSH port")
	pf.StringVar(&opts.sshUser, "ssh-user", "", "SSH user")
	pf.StringVar(&opts.sshPassword, "ssh-password", "", "SSH password (prompted when omitted on a terminal)")
	pf.DurationVar(&opts.sshTimeout, "ssh-timeout", 10*time.Second, "SSH connect timeout")

	cmd.AddCommand(newShardsCommand(opts))
	return cmd
}
