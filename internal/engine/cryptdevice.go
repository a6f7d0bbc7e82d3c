//go:build linux && cgo

package engine

import (
	"fmt"

	cryptsetup "github.com/martinjungblut/go-cryptsetup"
)

// cryptDevice wraps a go-cryptsetup device handle for a single LUKS1
// container image. It is not safe for concurrent use; callers serialize
// access per volume name (see driver.lockTable).
type cryptDevice struct {
	path string
	dev  *cryptsetup.Device
}

// openCryptDevice initializes a cryptsetup device handle bound to path,
// which may be a freshly-created sparse file (before Format) or an
// already-formatted LUKS1 image (before Load/Activate).
func openCryptDevice(path string) (*cryptDevice, error) {
	dev, err := cryptsetup.Init(path)
	if err != nil {
		return nil, BlockError{Device: path, Op: "init", Err: err}
	}
	return &cryptDevice{path: path, dev: dev}, nil
}

// format writes a fresh LUKS1 header: cipher aes-xts-plain64, sha256
// hash, 256-bit key size, 5s PBKDF iteration time, urandom RNG — per the
// engine's create() step 4. volumeKey is left empty so cryptsetup derives
// its own internal master key; the caller-supplied key is added as the
// keyslot 0 passphrase in a second step.
func (c *cryptDevice) format() error {
	c.dev.SetRNGType(cryptsetup.RNGUrandom)
	c.dev.SetIterationTime(5000)

	params := cryptsetup.GenericParams{
		Cipher:        "aes",
		CipherMode:    "xts-plain64",
		VolumeKeySize: 256 / 8,
	}

	if err := c.dev.Format(cryptsetup.LUKS1{Hash: "sha256"}, params); err != nil {
		return BlockError{Device: c.path, Op: "format", Err: err}
	}
	return nil
}

// addKeyslot adds key as the passphrase for keyslot 0 of the master key
// cryptsetup generated during format().
func (c *cryptDevice) addKeyslot(key []byte) error {
	if err := c.dev.KeyslotAddByVolumeKey(0, "", string(key)); err != nil {
		return BlockError{Device: c.path, Op: "keyslot-add", Err: err}
	}
	return nil
}

// activate opens the LUKS container and exposes it as /dev/mapper/<id>,
// authenticating with the keyslot 0 passphrase.
func (c *cryptDevice) activate(id string, key []byte) error {
	if err := c.dev.ActivateByPassphrase(id, 0, string(key), 0); err != nil {
		return BlockError{Device: c.path, Op: "activate", Err: err}
	}
	return nil
}

// load reads the existing LUKS1 header without activating, required
// before ActivateByPassphrase on an already-formatted image opened in a
// fresh process.
func (c *cryptDevice) load() error {
	if err := c.dev.Load(cryptsetup.LUKS1{}); err != nil {
		return BlockError{Device: c.path, Op: "load", Err: err}
	}
	return nil
}

// free releases the native cryptsetup handle. Callers must call this
// exactly once after the device is no longer needed.
func (c *cryptDevice) free() {
	if c.dev != nil {
		c.dev.Free()
	}
}

// deactivateMapping tears down /dev/mapper/<id>. It is a package-level
// function, not a cryptDevice method, because deactivation is addressed
// by activation id rather than by the backing image path — the engine
// may need to deactivate a mapping in a process that never opened the
// image (e.g. during unmount).
func deactivateMapping(id string) error {
	dev, err := cryptsetup.InitByName(id)
	if err != nil {
		// Already gone; deactivation is idempotent from the caller's
		// perspective.
		return nil
	}
	defer dev.Free()

	if err := dev.Deactivate(id); err != nil {
		return BlockError{Device: id, Op: "deactivate", Err: fmt.Errorf("%w", err)}
	}
	return nil
}

func mapperPath(id string) string {
	return "/dev/mapper/" + id
}
