//go:build linux && cgo

package engine

import (
	"os"

	"golang.org/x/sys/unix"
)

// Unmount force-unmounts mount_dir/name, deactivates /dev/mapper/
// activationID, and removes the (now-empty) mount directory. All three
// sub-steps are attempted in order regardless of earlier failures; the
// first error encountered is what's returned (§4.2 unmount).
func (e *Engine) Unmount(name, activationID string) error {
	mountpoint := e.mountPath(name)

	var firstErr error

	e.logger.Debug("engine: unmount", "volume", name, "activation_id", activationID, "step", "unmount")
	if err := unix.Unmount(mountpoint, unix.MNT_FORCE); err != nil {
		firstErr = BlockError{Device: mountpoint, Op: "unmount", Err: err}
	}

	e.logger.Debug("engine: unmount", "volume", name, "activation_id", activationID, "step", "deactivate")
	if err := deactivateMapping(activationID); err != nil && firstErr == nil {
		firstErr = err
	}

	e.logger.Debug("engine: unmount", "volume", name, "activation_id", activationID, "step", "rm-dir")
	if err := os.Remove(mountpoint); err != nil && !os.IsNotExist(err) && firstErr == nil {
		firstErr = IOError{Path: mountpoint, Err: err}
	}

	e.logger.Debug("engine: unmount", "volume", name, "activation_id", activationID, "step", "done")
	return firstErr
}
