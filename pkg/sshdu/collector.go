// Package sshdu measures the on-disk size of storage shards by running
// a disk-usage scan on the database host over SSH.
package sshdu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/tsdbtools/shardsize/internal/logctx"
)

// Config holds the SSH connection parameters for the database host.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	// Timeout bounds connection establishment, including the
	// authentication handshake. Zero means no limit.
	Timeout time.Duration
}

// Index maps a shard id to its on-disk size in bytes. A missing key
// means no directory was found for that shard; callers treat it as a
// zero contribution.
type Index map[uint64]int64

// Shard directories sit exactly three levels below the storage root
// (data/<database>/<retention policy>/<shard id>), so the scan pins
// both find depths to 3. du -b reports the recursive byte size.
const duCommand = `sudo find %s -maxdepth 3 -mindepth 3 -exec du -b {} \;`

// Collect opens an SSH session to the configured host, runs the
// disk-usage scan under rootDir and returns the resulting shard size
// index. Authentication rejection and transport failure are fatal;
// unparsable output lines and stderr noise (typically permission
// denials on individual directories) are logged and skipped.
func Collect(ctx context.Context, cfg Config, rootDir string) (Index, error) {
	log := logctx.FromContext(ctx)

	clientCfg := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{ssh.Password(cfg.Password)},
		// The original tool trusted unknown host keys; keep that
		// behavior rather than requiring a known_hosts entry.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cfg.Timeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	client, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("%w: %s@%s: %v", ErrAuth, cfg.User, addr, err)
		}
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnect, addr, err)
	}
	defer client.Close()
	log.Debug().Str("addr", addr).Str("user", cfg.User).Msg("ssh session established")

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: open session: %v", ErrConnect, err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrConnect, err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrConnect, err)
	}

	cmd := fmt.Sprintf(duCommand, rootDir)
	log.Debug().Str("cmd", cmd).Msg("running remote disk-usage scan")
	if err := session.Start(cmd); err != nil {
		return nil, fmt.Errorf("%w: start %q: %v", ErrConnect, cmd, err)
	}

	// Stderr has to be drained alongside stdout or the remote command
	// can block on a full pipe. Every line is surfaced as a warning.
	var drain sync.WaitGroup
	drain.Add(1)
	go func() {
		defer drain.Done()
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			log.Warn().Str("line", sc.Text()).Msg("remote command stderr")
		}
	}()

	index, err := readIndex(ctx, stdout)
	drain.Wait()
	if err != nil {
		return nil, err
	}

	// find exits non-zero whenever any subdirectory was unreadable,
	// which is routine on a live data dir; the stdout we did get is
	// still a usable index.
	if err := session.Wait(); err != nil {
		log.Warn().Err(err).Msg("remote command exited with error")
	}

	log.Info().Int("shards", len(index)).Msg("collected shard sizes")
	return index, nil
}

// readIndex consumes du output line by line, skipping lines that do not
// parse, until the stream is exhausted.
func readIndex(ctx context.Context, r io.Reader) (Index, error) {
	log := logctx.FromContext(ctx)

	index := make(Index)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, size, err := ParseLine(line)
		if err != nil {
			log.Warn().Str("line", line).Msg("skipping unparsable du line")
			continue
		}
		index[id] = size
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read remote output: %v", ErrConnect, err)
	}
	return index, nil
}
