// Package sizefmt renders raw byte counts as human-readable magnitudes.
package sizefmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNegativeSize indicates a negative byte count reached the formatter.
// Sizes are accumulated from non-negative inputs, so this is a contract
// violation by the caller rather than a recoverable condition.
var ErrNegativeSize = errors.New("negative byte count")

// units in ascending base-1024 order. Counts beyond the last unit are
// clamped to it rather than indexing past the table.
var units = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// Bytes formats a byte count using base-1024 units, rounded to two
// decimal places with trailing zeros trimmed: "0B", "1 KB", "1.5 KB",
// "1.23 MB".
func Bytes(n int64) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeSize, n)
	}
	if n == 0 {
		return "0B", nil
	}

	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}

	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + " " + units[i], nil
}
