package sshdu

import "errors"

var (
	// ErrAuth indicates the remote host rejected the supplied credentials.
	ErrAuth = errors.New("ssh authentication failed")
	// ErrConnect indicates the session could not be established or the
	// remote command could not be run over it.
	ErrConnect = errors.New("ssh connection failed")
	// ErrMalformedLine indicates a line of remote output that does not
	// match the expected "<bytes> <path ending in shard id>" shape.
	ErrMalformedLine = errors.New("malformed du output line")
)
