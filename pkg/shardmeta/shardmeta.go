// Package shardmeta fetches shard descriptors (id, owning database,
// coverage window) from the database's query interface.
package shardmeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/tsdbtools/shardsize/internal/logctx"
)

// ErrQuery indicates the metadata query could not be executed or
// returned something other than the expected shard listing. Fatal: no
// report can be produced without shard metadata.
var ErrQuery = errors.New("shard metadata query failed")

// Config holds the connection parameters for the metadata query.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	// Database is informational only; SHOW SHARDS always returns every
	// database and filtering happens during aggregation.
	Database string
	Timeout  time.Duration
}

// Shard is one shard descriptor as reported by the engine. Start and
// End bound the time range the shard covers.
type Shard struct {
	ID       uint64
	Database string
	Start    time.Time
	End      time.Time
}

// Group is the set of shards belonging to one database, in the order
// the query returned them.
type Group struct {
	Database string
	Shards   []Shard
}

// Shard timestamps come back in a fixed UTC layout.
const timeLayout = "2006-01-02T15:04:05Z"

// ListShards runs SHOW SHARDS against the configured host and returns
// the shard groups in query-return order. Series with no rows are
// skipped silently.
func ListShards(ctx context.Context, cfg Config) ([]Group, error) {
	log := logctx.FromContext(ctx)

	addr := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     addr,
		Username: cfg.User,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrQuery, addr, err)
	}
	defer c.Close()

	log.Debug().Str("addr", addr).Msg("querying SHOW SHARDS")
	resp, err := c.Query(client.NewQuery("SHOW SHARDS", "", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrQuery, addr, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	groups, err := groupsFromResults(resp.Results)
	if err != nil {
		return nil, err
	}
	log.Info().Int("groups", len(groups)).Msg("fetched shard metadata")
	return groups, nil
}

// groupsFromResults converts the raw query results into shard groups,
// one per non-empty series.
func groupsFromResults(results []client.Result) ([]Group, error) {
	var groups []Group
	for _, res := range results {
		for _, row := range res.Series {
			cols := make(map[string]int, len(row.Columns))
			for i, name := range row.Columns {
				cols[name] = i
			}

			var g Group
			for _, values := range row.Values {
				s, err := shardFromValues(cols, values)
				if err != nil {
					return nil, fmt.Errorf("%w: series %q: %v", ErrQuery, row.Name, err)
				}
				g.Shards = append(g.Shards, s)
			}
			if len(g.Shards) == 0 {
				continue
			}
			// The group takes its database name from the first member.
			g.Database = g.Shards[0].Database
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func shardFromValues(cols map[string]int, values []interface{}) (Shard, error) {
	var s Shard
	var err error

	if s.ID, err = uintField(cols, values, "id"); err != nil {
		return Shard{}, err
	}
	if s.Database, err = stringField(cols, values, "database"); err != nil {
		return Shard{}, err
	}
	if s.Start, err = timeField(cols, values, "start_time"); err != nil {
		return Shard{}, err
	}
	if s.End, err = timeField(cols, values, "end_time"); err != nil {
		return Shard{}, err
	}
	return s, nil
}

func field(cols map[string]int, values []interface{}, name string) (interface{}, error) {
	i, ok := cols[name]
	if !ok || i >= len(values) {
		return nil, fmt.Errorf("missing column %q", name)
	}
	return values[i], nil
}

func uintField(cols map[string]int, values []interface{}, name string) (uint64, error) {
	v, err := field(cols, values, name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case json.Number:
		id, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %v", name, err)
		}
		return id, nil
	case float64:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("column %q: unexpected type %T", name, v)
	}
}

func stringField(cols map[string]int, values []interface{}, name string) (string, error) {
	v, err := field(cols, values, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("column %q: unexpected type %T", name, v)
	}
	return s, nil
}

func timeField(cols map[string]int, values []interface{}, name string) (time.Time, error) {
	s, err := stringField(cols, values, name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q: %v", name, err)
	}
	return t, nil
}
