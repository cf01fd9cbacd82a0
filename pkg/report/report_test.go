package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/tsdbtools/shardsize/pkg/shardmeta"
	"github.com/tsdbtools/shardsize/pkg/sshdu"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("20200101", "20201231")
	if err != nil {
		t.Fatalf("ParseWindow returned error: %v", err)
	}
	if !w.From.Equal(date(2020, 1, 1)) || !w.To.Equal(date(2020, 12, 31)) {
		t.Errorf("window = %+v", w)
	}

	if _, err := ParseWindow("2020-01-01", "20201231"); err == nil {
		t.Error("expected error for non-YYYYMMDD from date")
	}
	if _, err := ParseWindow("20200101", "31122020"); err == nil {
		t.Error("expected error for invalid to date")
	}
}

func TestAggregateWindowFilter(t *testing.T) {
	window := Window{From: date(2020, 1, 1), To: date(2020, 12, 31)}
	groups := []shardmeta.Group{{
		Database: "metrics",
		Shards: []shardmeta.Shard{
			// Fully inside: counted.
			{ID: 1, Database: "metrics", Start: date(2020, 2, 1), End: date(2020, 3, 1)},
			// Starts before the window: excluded.
			{ID: 2, Database: "metrics", Start: date(2019, 12, 1), End: date(2020, 2, 1)},
			// Ends after the window: excluded.
			{ID: 3, Database: "metrics", Start: date(2020, 11, 1), End: date(2021, 1, 1)},
			// Exactly equal to the window: included on both ends.
			{ID: 4, Database: "metrics", Start: date(2020, 1, 1), End: date(2020, 12, 31)},
		},
	}}
	index := sshdu.Index{1: 100, 2: 200, 3: 400, 4: 800}

	results, total := Aggregate(context.Background(), groups, index, window, Options{ShowAll: true})
	if total != 900 {
		t.Errorf("total = %d, want 900", total)
	}
	if len(results) != 1 || results[0].TotalBytes != 900 {
		t.Errorf("results = %+v, want one metrics entry of 900", results)
	}
}

func TestAggregateDatabaseFilter(t *testing.T) {
	window := Window{From: date(2000, 1, 1), To: date(2099, 1, 1)}
	groups := []shardmeta.Group{
		{
			Database: "metrics",
			Shards:   []shardmeta.Shard{{ID: 1, Start: date(2020, 1, 1), End: date(2020, 2, 1)}},
		},
		{
			Database: "logs",
			Shards:   []shardmeta.Shard{{ID: 2, Start: date(2020, 1, 1), End: date(2020, 2, 1)}},
		},
	}
	index := sshdu.Index{1: 1000, 2: 2000}

	// Filtered to one database: its line is emitted even without
	// ShowAll, and skipped groups contribute nothing to the total.
	results, total := Aggregate(context.Background(), groups, index, window, Options{Database: "logs"})
	if total != 2000 {
		t.Errorf("total = %d, want 2000", total)
	}
	if len(results) != 1 || results[0].Database != "logs" || results[0].TotalBytes != 2000 {
		t.Errorf("results = %+v, want one logs entry of 2000", results)
	}

	// Filter matching no group: no results, zero total.
	results, total = Aggregate(context.Background(), groups, index, window, Options{Database: "absent"})
	if len(results) != 0 || total != 0 {
		t.Errorf("results = %+v, total = %d, want none and 0", results, total)
	}
}

func TestAggregateEmittedSumEqualsTotal(t *testing.T) {
	window := Window{From: date(2000, 1, 1), To: date(2099, 1, 1)}
	groups := []shardmeta.Group{
		{
			Database: "a",
			Shards: []shardmeta.Shard{
				{ID: 1, Start: date(2020, 1, 1), End: date(2020, 2, 1)},
				{ID: 2, Start: date(2020, 2, 1), End: date(2020, 3, 1)},
			},
		},
		{
			Database: "b",
			Shards:   []shardmeta.Shard{{ID: 3, Start: date(2020, 1, 1), End: date(2020, 2, 1)}},
		},
	}
	index := sshdu.Index{1: 10, 2: 20, 3: 30}

	results, total := Aggregate(context.Background(), groups, index, window, Options{ShowAll: true})
	var sum int64
	for _, r := range results {
		sum += r.TotalBytes
	}
	if sum != total {
		t.Errorf("sum of emitted results = %d, total = %d", sum, total)
	}
	if total != 60 {
		t.Errorf("total = %d, want 60", total)
	}
}

func TestAggregateMissingShardContributesZero(t *testing.T) {
	window := Window{From: date(2000, 1, 1), To: date(2099, 1, 1)}
	groups := []shardmeta.Group{{
		Database: "metrics",
		Shards: []shardmeta.Shard{
			{ID: 1, Start: date(2020, 1, 1), End: date(2020, 2, 1)},
			{ID: 99, Start: date(2020, 2, 1), End: date(2020, 3, 1)},
		},
	}}
	index := sshdu.Index{1: 512}

	results, total := Aggregate(context.Background(), groups, index, window, Options{ShowAll: true})
	if total != 512 {
		t.Errorf("total = %d, want 512", total)
	}
	if len(results) != 1 || results[0].TotalBytes != 512 {
		t.Errorf("results = %+v", results)
	}
}

func TestAggregateGroupOrderPreserved(t *testing.T) {
	window := Window{From: date(2000, 1, 1), To: date(2099, 1, 1)}
	groups := []shardmeta.Group{
		{Database: "zeta", Shards: []shardmeta.Shard{{ID: 1, Start: date(2020, 1, 1), End: date(2020, 2, 1)}}},
		{Database: "alpha", Shards: []shardmeta.Shard{{ID: 2, Start: date(2020, 1, 1), End: date(2020, 2, 1)}}},
	}
	index := sshdu.Index{1: 1, 2: 2}

	results, _ := Aggregate(context.Background(), groups, index, window, Options{ShowAll: true})
	if len(results) != 2 || results[0].Database != "zeta" || results[1].Database != "alpha" {
		t.Errorf("results out of source order: %+v", results)
	}
}

func TestWriteShowAll(t *testing.T) {
	var buf bytes.Buffer
	results := []DatabaseSize{
		{Database: "metrics", TotalBytes: 2048},
		{Database: "logs", TotalBytes: 0},
	}
	if err := Write(&buf, results, 2048, Options{ShowAll: true}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	want := "2 KB: metrics\n0B: logs\nTOTAL: 2 KB\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteFilteredOmitsTotal(t *testing.T) {
	var buf bytes.Buffer
	results := []DatabaseSize{{Database: "metrics", TotalBytes: 1536}}
	if err := Write(&buf, results, 1536, Options{Database: "metrics"}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	want := "1.5 KB: metrics\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteEmptyUnfiltered(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, 0, Options{}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if buf.String() != "TOTAL: 0B\n" {
		t.Errorf("output = %q, want %q", buf.String(), "TOTAL: 0B\n")
	}
}

// End-to-end scenario: one metrics group, shard 10 inside the window
// with 2 KB on disk, shard 11 outside the window and absent from the
// index. Expect only the TOTAL line.
func TestEndToEndScenario(t *testing.T) {
	window, err := ParseWindow("20200101", "20201231")
	if err != nil {
		t.Fatalf("ParseWindow returned error: %v", err)
	}
	groups := []shardmeta.Group{{
		Database: "metrics",
		Shards: []shardmeta.Shard{
			{ID: 10, Database: "metrics", Start: date(2020, 1, 1), End: date(2020, 2, 1)},
			{ID: 11, Database: "metrics", Start: date(2021, 1, 1), End: date(2021, 2, 1)},
		},
	}}
	index := sshdu.Index{10: 2048}

	opts := Options{}
	results, total := Aggregate(context.Background(), groups, index, window, opts)

	var buf bytes.Buffer
	if err := Write(&buf, results, total, opts); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if buf.String() != "TOTAL: 2 KB\n" {
		t.Errorf("output = %q, want %q", buf.String(), "TOTAL: 2 KB\n")
	}
}
