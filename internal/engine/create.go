//go:build linux && cgo

package engine

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"
)

// Create provisions a new volume: a sparse disk image, a LUKS1 header, an
// ext4 filesystem, and an HSM-sealed keyfile (§4.2 create). On any failure
// the partial volume directory is removed before the error is returned.
func (e *Engine) Create(name string, rawOpts map[string]string) error {
	opts, err := parseCreateOpts(rawOpts)
	if err != nil {
		return err
	}

	dir := e.volumeDir(name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return IOError{Path: dir, Err: err}
	}

	if err := e.create(name, opts); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	return nil
}

func (e *Engine) create(name string, opts createOpts) error {
	key, err := e.hsm.Random(keyLength)
	if err != nil {
		return err
	}

	imgPath := e.imagePath(name)
	sizeBytes := opts.sizeGiB * (1 << 30)
	if err := allocateSparseFile(imgPath, sizeBytes); err != nil {
		return err
	}

	dev, err := openCryptDevice(imgPath)
	if err != nil {
		return err
	}
	defer dev.free()

	e.logger.Debug("engine: create", "volume", name, "step", "format")
	if err := dev.format(); err != nil {
		return err
	}

	e.logger.Debug("engine: create", "volume", name, "step", "keyslot-add")
	if err := dev.addKeyslot(key); err != nil {
		return err
	}

	// Seal and persist the keyfile now, while the keyslot add is known to
	// have succeeded but before the image is activated/deactivated — this
	// is the narrowest possible orphan-state window: a crash after this
	// point still leaves a keyfile for an image that already has a valid
	// keyslot, rather than a fully-formatted, deactivated volume with no
	// keyfile at all.
	sealed, err := e.hsm.Seal(key)
	if err != nil {
		return err
	}

	keyPath := e.keyfilePath(name)
	e.logger.Debug("engine: create", "volume", name, "step", "write-keyfile")
	if err := os.WriteFile(keyPath, sealed, 0o600); err != nil {
		return IOError{Path: keyPath, Err: err}
	}

	activationID := uuid.NewString()
	e.logger.Debug("engine: create", "volume", name, "step", "activate")
	if err := dev.activate(activationID, key); err != nil {
		return err
	}

	e.logger.Debug("engine: create", "volume", name, "step", "mkfs.ext4")
	if err := formatExt4(mapperPath(activationID), opts.inodeSize); err != nil {
		_ = deactivateMapping(activationID)
		return err
	}

	e.logger.Debug("engine: create", "volume", name, "step", "deactivate")
	if err := deactivateMapping(activationID); err != nil {
		return err
	}

	e.logger.Debug("engine: create", "volume", name, "step", "done")
	return nil
}

// allocateSparseFile creates a regular file of the given logical size
// without allocating backing blocks, equivalent to `dd ... seek=N count=0`.
func allocateSparseFile(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return IOError{Path: path, Err: err}
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		return IOError{Path: path, Err: err}
	}
	return nil
}

// formatExt4 formats device as ext4 with the engine's default tuning
// (inode_size, 5% reserved blocks) via mkfs.ext4.
func formatExt4(device string, inodeSize int) error {
	args := []string{
		"-F",
		"-I", fmt.Sprintf("%d", inodeSize),
		"-m", "5",
		device,
	}
	cmd := exec.Command("mkfs.ext4", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return BlockError{Device: device, Op: "mkfs.ext4", Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))}
	}
	return nil
}
