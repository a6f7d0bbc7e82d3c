package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/balena-os/luks-volume-driver/internal/hsm"
)

func TestNewRejectsMissingDirs(t *testing.T) {
	root := t.TempDir()
	if _, err := New(filepath.Join(root, "nope"), root, hsm.NewPassthrough(), nil); err == nil {
		t.Fatal("expected error for missing data_dir")
	}
	if _, err := New(root, filepath.Join(root, "nope"), hsm.NewPassthrough(), nil); err == nil {
		t.Fatal("expected error for missing mount_dir")
	}
}

func TestNewCanonicalizesPaths(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	mountDir := filepath.Join(root, "mount")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(mountDir, 0o755); err != nil {
		t.Fatal(err)
	}

	e, err := New(dataDir, mountDir, hsm.NewPassthrough(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !filepath.IsAbs(e.dataDir) || !filepath.IsAbs(e.mountDir) {
		t.Fatalf("expected absolute paths, got dataDir=%s mountDir=%s", e.dataDir, e.mountDir)
	}
}

func TestListEmptyDataDir(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	mountDir := filepath.Join(root, "mount")
	os.MkdirAll(dataDir, 0o755)
	os.MkdirAll(mountDir, 0o755)

	e, err := New(dataDir, mountDir, hsm.NewPassthrough(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	volumes, err := e.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(volumes) != 0 {
		t.Fatalf("expected no volumes, got %v", volumes)
	}
}

func TestGetMissingVolumeErrors(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	mountDir := filepath.Join(root, "mount")
	os.MkdirAll(dataDir, 0o755)
	os.MkdirAll(mountDir, 0o755)

	e, err := New(dataDir, mountDir, hsm.NewPassthrough(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Get("nope"); err == nil {
		t.Fatal("expected NotFoundError for missing volume")
	}
}

func TestPathMissingMountErrors(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	mountDir := filepath.Join(root, "mount")
	os.MkdirAll(dataDir, 0o755)
	os.MkdirAll(mountDir, 0o755)

	e, err := New(dataDir, mountDir, hsm.NewPassthrough(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Path("nope"); err == nil {
		t.Fatal("expected error for unmounted volume")
	}
}

func TestRemoveNonexistentVolumeIsNotAnError(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	mountDir := filepath.Join(root, "mount")
	os.MkdirAll(dataDir, 0o755)
	os.MkdirAll(mountDir, 0o755)

	e, err := New(dataDir, mountDir, hsm.NewPassthrough(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Remove("never-created"); err != nil {
		t.Fatalf("Remove of nonexistent volume should be a no-op, got %v", err)
	}
}
