// Command shardsize reports disk space consumed by InfluxDB storage
// shards, correlating shard metadata from the database with directory
// sizes measured over SSH.
package main

import (
	"fmt"
	"os"

	"github.com/tsdbtools/shardsize/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
