package engine

import "os"

// Volume is the plugin-facing description of a volume's current state.
type Volume struct {
	Name       string
	Mountpoint string // empty when not mounted
}

// Path returns the volume's mountpoint if it currently exists on disk.
func (e *Engine) Path(name string) (string, error) {
	dir := e.mountPath(name)
	if _, err := os.Stat(dir); err != nil {
		return "", NotFoundError{Name: name}
	}
	return dir, nil
}

// Get returns the volume's current state. It errors only if volume.img is
// missing; mountpoint reflects whether the mount directory exists.
func (e *Engine) Get(name string) (Volume, error) {
	if _, err := os.Stat(e.imagePath(name)); err != nil {
		return Volume{}, NotFoundError{Name: name}
	}

	v := Volume{Name: name}
	if _, err := os.Stat(e.mountPath(name)); err == nil {
		v.Mountpoint = e.mountPath(name)
	}
	return v, nil
}

// List enumerates every volume whose image exists under data_dir.
// Mountpoint is computed with the same rule Get uses, for consistency
// (§9 open question: the original's list() always reported "").
func (e *Engine) List() ([]Volume, error) {
	entries, err := os.ReadDir(e.dataDir)
	if err != nil {
		return nil, IOError{Path: e.dataDir, Err: err}
	}

	volumes := make([]Volume, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, err := os.Stat(e.imagePath(name)); err != nil {
			continue
		}
		v := Volume{Name: name}
		if _, err := os.Stat(e.mountPath(name)); err == nil {
			v.Mountpoint = e.mountPath(name)
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}
