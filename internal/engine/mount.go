//go:build linux && cgo

package engine

import (
	"os"

	mountutils "k8s.io/mount-utils"
)

// autoFstype is passed to the kernel mount syscall as fstype "" / "auto",
// letting the kernel probe supported filesystem drivers — every volume
// this engine formats is ext4, but mount still auto-detects rather than
// hard-coding the type, matching §4.2 mount step 4.
const autoFstype = ""

// Mount reads and unseals the volume's keyfile, activates the LUKS
// container under the caller-supplied activationID, and mounts it at
// mount_dir/name (§4.2 mount). Unlike Remove, Mount is not idempotent:
// the caller must supply a fresh activationID per call.
func (e *Engine) Mount(name, activationID string) (string, error) {
	e.logger.Debug("engine: mount", "volume", name, "activation_id", activationID, "step", "read-keyfile")
	keyPath := e.keyfilePath(name)
	sealed, err := os.ReadFile(keyPath)
	if err != nil {
		return "", IOError{Path: keyPath, Err: err}
	}

	e.logger.Debug("engine: mount", "volume", name, "activation_id", activationID, "step", "unseal")
	key, err := e.hsm.Unseal(sealed)
	if err != nil {
		return "", err
	}

	mountpoint := e.mountPath(name)
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return "", IOError{Path: mountpoint, Err: err}
	}

	dev, err := openCryptDevice(e.imagePath(name))
	if err != nil {
		_ = os.Remove(mountpoint)
		return "", err
	}
	defer dev.free()

	e.logger.Debug("engine: mount", "volume", name, "activation_id", activationID, "step", "load")
	if err := dev.load(); err != nil {
		_ = os.Remove(mountpoint)
		return "", err
	}

	e.logger.Debug("engine: mount", "volume", name, "activation_id", activationID, "step", "activate")
	if err := dev.activate(activationID, key); err != nil {
		_ = os.Remove(mountpoint)
		return "", err
	}

	e.logger.Debug("engine: mount", "volume", name, "activation_id", activationID, "step", "mount")
	mounter := mountutils.New("")
	if err := mounter.Mount(mapperPath(activationID), mountpoint, autoFstype, nil); err != nil {
		_ = deactivateMapping(activationID)
		_ = os.Remove(mountpoint)
		return "", BlockError{Device: mapperPath(activationID), Op: "mount", Err: err}
	}

	e.logger.Debug("engine: mount", "volume", name, "activation_id", activationID, "step", "done")
	return mountpoint, nil
}
