// Package report joins shard metadata against the on-disk size index
// and aggregates byte totals per database.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tsdbtools/shardsize/internal/logctx"
	"github.com/tsdbtools/shardsize/pkg/shardmeta"
	"github.com/tsdbtools/shardsize/pkg/sizefmt"
	"github.com/tsdbtools/shardsize/pkg/sshdu"
)

// dateLayout is the 8-digit calendar date accepted by --from/--to.
const dateLayout = "20060102"

// Window is the date range a shard must be fully contained in to count.
type Window struct {
	From time.Time
	To   time.Time
}

// ParseWindow builds a Window from two YYYYMMDD dates.
func ParseWindow(from, to string) (Window, error) {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return Window{}, fmt.Errorf("invalid from date %q: %v", from, err)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return Window{}, fmt.Errorf("invalid to date %q: %v", to, err)
	}
	return Window{From: f, To: t}, nil
}

// Options controls which databases are visited and which per-database
// lines are emitted.
type Options struct {
	// Database, when non-empty, restricts the report to that database.
	// Its line is always printed and no TOTAL line follows.
	Database string
	// ShowAll prints one line per database even without a filter.
	ShowAll bool
}

// DatabaseSize is the aggregated on-disk footprint of one database's
// qualifying shards.
type DatabaseSize struct {
	Database   string
	TotalBytes int64
}

// Aggregate walks the shard groups in order, sums the sizes of shards
// fully contained in the window and returns the per-database results to
// print plus the grand total across every group visited.
//
// A shard counts only when window.From <= start and end <= window.To,
// equality included on both ends. A still-open shard whose end time
// runs past the window is dropped like any other. Shards missing from
// the index contribute zero.
func Aggregate(ctx context.Context, groups []shardmeta.Group, index sshdu.Index, window Window, opts Options) ([]DatabaseSize, int64) {
	log := logctx.FromContext(ctx)

	var results []DatabaseSize
	var total int64
	for _, g := range groups {
		if opts.Database != "" && g.Database != opts.Database {
			continue
		}

		var dbSize int64
		for _, s := range g.Shards {
			if s.Start.Before(window.From) {
				continue
			}
			if s.End.After(window.To) {
				continue
			}

			size, ok := index[s.ID]
			if !ok {
				// Typically a shard already dropped by retention.
				log.Debug().
					Uint64("shard_id", s.ID).
					Str("database", g.Database).
					Msg("shard has no on-disk footprint")
				continue
			}
			dbSize += size
		}

		if opts.ShowAll || opts.Database != "" {
			results = append(results, DatabaseSize{Database: g.Database, TotalBytes: dbSize})
		}
		total += dbSize
	}
	return results, total
}

// Write renders the aggregation results as text lines: one
// "<size>: <database>" line per result and, when no database filter is
// active, a closing "TOTAL: <size>" line.
func Write(w io.Writer, results []DatabaseSize, total int64, opts Options) error {
	for _, r := range results {
		s, err := sizefmt.Bytes(r.TotalBytes)
		if err != nil {
			return fmt.Errorf("format size for %s: %w", r.Database, err)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", s, r.Database); err != nil {
			return err
		}
	}

	if opts.Database == "" {
		s, err := sizefmt.Bytes(total)
		if err != nil {
			return fmt.Errorf("format total size: %w", err)
		}
		if _, err := fmt.Fprintf(w, "TOTAL: %s\n", s); err != nil {
			return err
		}
	}
	return nil
}
