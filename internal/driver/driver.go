// Package driver implements the Volume Driver: a thin, per-name-serialized
// façade over the LUKS Engine exposing the seven operations the RPC
// Dispatcher calls.
package driver

import (
	"log/slog"

	"github.com/balena-os/luks-volume-driver/internal/engine"
)

// Driver holds the shared engine handle and the per-name lock table. A
// single Driver instance is shared across every request handler for the
// lifetime of the process.
type Driver struct {
	engine *engine.Engine
	locks  *lockTable
	logger *slog.Logger
}

// New returns a Driver wrapping eng.
func New(eng *engine.Engine, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{engine: eng, locks: newLockTable(), logger: logger}
}

// Create provisions a new volume named name with the given Opts.
func (d *Driver) Create(name string, opts map[string]string) error {
	return d.locks.withLock(name, func() error {
		return d.engine.Create(name, opts)
	})
}

// Remove deletes volume name's on-disk footprint.
func (d *Driver) Remove(name string) error {
	return d.locks.withLock(name, func() error {
		return d.engine.Remove(name)
	})
}

// Mount activates and mounts volume name under activationID, returning its
// mountpoint.
func (d *Driver) Mount(name, activationID string) (string, error) {
	var mountpoint string
	err := d.locks.withLock(name, func() error {
		var err error
		mountpoint, err = d.engine.Mount(name, activationID)
		return err
	})
	return mountpoint, err
}

// Unmount unmounts and deactivates volume name's activationID.
func (d *Driver) Unmount(name, activationID string) error {
	return d.locks.withLock(name, func() error {
		return d.engine.Unmount(name, activationID)
	})
}

// Path returns volume name's mountpoint if currently mounted.
func (d *Driver) Path(name string) (string, error) {
	return d.engine.Path(name)
}

// Get returns volume name's current state.
func (d *Driver) Get(name string) (engine.Volume, error) {
	return d.engine.Get(name)
}

// List enumerates every known volume.
func (d *Driver) List() ([]engine.Volume, error) {
	return d.engine.List()
}
