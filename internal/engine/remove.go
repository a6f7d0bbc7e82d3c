package engine

import "os"

// Remove deletes a volume's on-disk directory. It does not verify the
// volume is unmounted — the caller is contractually responsible for
// calling Unmount first (§4.2 remove).
func (e *Engine) Remove(name string) error {
	dir := e.volumeDir(name)
	e.logger.Debug("engine: remove", "volume", name, "step", "rm-dir")
	if err := os.RemoveAll(dir); err != nil {
		return IOError{Path: dir, Err: err}
	}
	e.logger.Debug("engine: remove", "volume", name, "step", "done")
	return nil
}
