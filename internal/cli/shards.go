package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/tsdbtools/shardsize/internal/logctx"
	"github.com/tsdbtools/shardsize/pkg/report"
	"github.com/tsdbtools/shardsize/pkg/shardmeta"
	"github.com/tsdbtools/shardsize/pkg/sshdu"
)

func newShardsCommand(opts *globalOptions) *cobra.Command {
	var (
		from string
		to   string
		dir  string
		full bool
	)

	cmd := &cobra.Command{
		Use:   "shards",
		Short: "Report disk space consumed by shards, optionally filtered by date",
		Long: `Report disk space consumed by storage shards.

Shard metadata (id, database, time range) is read from InfluxDB and
joined against the on-disk directory sizes measured over SSH on the
database host. Only shards fully contained in the --from/--to range
are counted. Without --influx-db the report ends with a TOTAL line;
--full adds one line per database.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := report.ParseWindow(from, to)
			if err != nil {
				return err
			}

			logger := logctx.NewRunLogger(opts.verbose, opts.debug)
			ctx := logctx.WithLogger(cmd.Context(), logger)
			return runShards(ctx, opts, window, dir, full, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&from, "from", "F", "20000101", "count shards starting at this date (YYYYMMDD)")
	f.StringVarP(&to, "to", "T", "20990101", "count shards up to this date (YYYYMMDD)")
	f.StringVarP(&dir, "dir", "D", "/var/lib/influxdb", "storage directory on the database host")
	f.BoolVar(&full, "full", false, "print one line per database")
	return cmd
}

// runShards fetches the two data sources concurrently, aggregates and
// prints the report.
func runShards(ctx context.Context, opts *globalOptions, window report.Window, dir string, full bool, out io.Writer) error {
	log := logctx.FromContext(ctx)

	sshHost := opts.sshHost
	if sshHost == "" {
		sshHost = opts.influxHost
	}
	sshPassword := opts.sshPassword
	if sshPassword == "" {
		p, err := promptPassword(fmt.Sprintf("SSH password for %s@%s: ", opts.sshUser, sshHost))
		if err != nil {
			return err
		}
		sshPassword = p
	}

	metaCfg := shardmeta.Config{
		Host:     opts.influxHost,
		Port:     opts.influxPort,
		User:     opts.influxUser,
		Password: opts.influxPassword,
		Database: opts.influxDB,
		Timeout:  opts.influxTimeout,
	}
	sshCfg := sshdu.Config{
		Host:     sshHost,
		Port:     opts.sshPort,
		User:     opts.sshUser,
		Password: sshPassword,
		Timeout:  opts.sshTimeout,
	}

	log.Info().
		Time("from", window.From).
		Time("to", window.To).
		Str("database", opts.influxDB).
		Str("dir", dir).
		Msg("measuring shard sizes")

	// The size index and the shard metadata come from independent
	// sources; fetch both at once. Either failing aborts the run
	// before anything is printed.
	grp, gctx := errgroup.WithContext(ctx)
	var index sshdu.Index
	var groups []shardmeta.Group
	grp.Go(func() error {
		var err error
		if index, err = sshdu.Collect(gctx, sshCfg, dir); err != nil {
			return fmt.Errorf("remote size collection: %w", err)
		}
		return nil
	})
	grp.Go(func() error {
		var err error
		if groups, err = shardmeta.ListShards(gctx, metaCfg); err != nil {
			return fmt.Errorf("shard metadata query: %w", err)
		}
		return nil
	})
	if err := grp.Wait(); err != nil {
		return err
	}

	ropts := report.Options{Database: opts.influxDB, ShowAll: full}
	results, total := report.Aggregate(ctx, groups, index, window, ropts)
	return report.Write(out, results, total, ropts)
}

// promptPassword reads a password from the terminal without echo. On a
// non-terminal stdin it returns an empty password so scripted runs can
// still target hosts that accept one.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
