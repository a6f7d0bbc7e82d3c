// Package engine implements the Encrypted Volume Lifecycle Engine: disk
// image allocation, LUKS1 header formatting, keyslot management, device-
// mapper activation, filesystem formatting, and mount/unmount, with key
// custody delegated to a pluggable HSM.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/balena-os/luks-volume-driver/internal/hsm"
)

const (
	imageFileName = "volume.img"
	keyFileName   = "keyfile"
	keyLength     = 1024
)

// Engine owns the data_dir and mount_dir root paths and the HSM handle
// used to seal/unseal per-volume keys. A single Engine is shared
// immutably across all request handlers; callers are responsible for
// per-name serialization (see driver.lockTable).
type Engine struct {
	dataDir  string
	mountDir string
	hsm      hsm.HSM
	logger   *slog.Logger
}

// New canonicalizes dataDir and mountDir (both must already exist) and
// returns an Engine bound to them.
func New(dataDir, mountDir string, h hsm.HSM, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absData, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, IOError{Path: dataDir, Err: err}
	}
	absMount, err := filepath.Abs(mountDir)
	if err != nil {
		return nil, IOError{Path: mountDir, Err: err}
	}

	for _, dir := range []string{absData, absMount} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, IOError{Path: dir, Err: err}
		}
		if !info.IsDir() {
			return nil, IOError{Path: dir, Err: fmt.Errorf("not a directory")}
		}
	}

	return &Engine{dataDir: absData, mountDir: absMount, hsm: h, logger: logger}, nil
}

func (e *Engine) volumeDir(name string) string {
	return filepath.Join(e.dataDir, name)
}

func (e *Engine) imagePath(name string) string {
	return filepath.Join(e.volumeDir(name), imageFileName)
}

func (e *Engine) keyfilePath(name string) string {
	return filepath.Join(e.volumeDir(name), keyFileName)
}

func (e *Engine) mountPath(name string) string {
	return filepath.Join(e.mountDir, name)
}
