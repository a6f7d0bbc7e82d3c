package engine

import (
	"fmt"
	"strconv"
)

// createOpts are the recognized keys of the Create Opts map (§9 open
// question: size, filesystem, inode_size). Unrecognized keys are ignored
// — the wire contract only requires that Opts be accepted and forwarded.
type createOpts struct {
	sizeGiB   int64
	inodeSize int
}

const (
	defaultSizeGiB   = 1
	defaultInodeSize = 256
)

func defaultCreateOpts() createOpts {
	return createOpts{sizeGiB: defaultSizeGiB, inodeSize: defaultInodeSize}
}

// parseCreateOpts validates and extracts the recognized keys from the
// caller-supplied Opts map. "filesystem", if present, must be "ext4" —
// it is the only filesystem the engine formats, and an explicit mismatch
// is a clearer failure than silently ignoring the request.
func parseCreateOpts(raw map[string]string) (createOpts, error) {
	opts := defaultCreateOpts()
	if raw == nil {
		return opts, nil
	}

	if v, ok := raw["size"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return opts, OptsError{Detail: fmt.Sprintf("invalid size opt %q: must be a positive integer (GiB)", v)}
		}
		opts.sizeGiB = n
	}

	if v, ok := raw["filesystem"]; ok && v != "ext4" {
		return opts, OptsError{Detail: fmt.Sprintf("unsupported filesystem %q: only ext4 is supported", v)}
	}

	if v, ok := raw["inode_size"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, OptsError{Detail: fmt.Sprintf("invalid inode_size opt %q: must be a positive integer", v)}
		}
		opts.inodeSize = n
	}

	return opts, nil
}
