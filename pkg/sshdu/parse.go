package sshdu

import (
	"fmt"
	"regexp"
	"strconv"
)

// duLine matches one line of `du -b` output, e.g.
//
//	23248	/var/lib/influxdb/data/ddbb/default/1939
//
// The first field is the byte count, the last path segment is the shard
// id. The whitespace run between the fields has no fixed width.
var duLine = regexp.MustCompile(`^([0-9]+)\s+.*/([0-9]+)`)

// ParseLine extracts a (shard id, byte size) pair from one line of
// remote command output. Lines that do not match — permission-denied
// noise, shard subdirectories, blank lines — yield ErrMalformedLine and
// should be skipped by the caller, not treated as fatal.
func ParseLine(line string) (uint64, int64, error) {
	m := duLine.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	size, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: byte count %q: %v", ErrMalformedLine, m[1], err)
	}
	id, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: shard id %q: %v", ErrMalformedLine, m[2], err)
	}
	return id, size, nil
}
