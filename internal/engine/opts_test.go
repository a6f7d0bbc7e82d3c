package engine

import "testing"

func TestParseCreateOptsDefaults(t *testing.T) {
	opts, err := parseCreateOpts(nil)
	if err != nil {
		t.Fatalf("parseCreateOpts(nil): %v", err)
	}
	if opts.sizeGiB != defaultSizeGiB || opts.inodeSize != defaultInodeSize {
		t.Fatalf("got %+v, want defaults", opts)
	}
}

func TestParseCreateOptsRecognized(t *testing.T) {
	opts, err := parseCreateOpts(map[string]string{
		"size":       "4",
		"filesystem": "ext4",
		"inode_size": "512",
	})
	if err != nil {
		t.Fatalf("parseCreateOpts: %v", err)
	}
	if opts.sizeGiB != 4 || opts.inodeSize != 512 {
		t.Fatalf("got %+v", opts)
	}
}

func TestParseCreateOptsIgnoresUnknownKeys(t *testing.T) {
	opts, err := parseCreateOpts(map[string]string{"nonsense": "value"})
	if err != nil {
		t.Fatalf("parseCreateOpts: %v", err)
	}
	if opts.sizeGiB != defaultSizeGiB {
		t.Fatalf("unknown key should be ignored, got %+v", opts)
	}
}

func TestParseCreateOptsRejectsBadFilesystem(t *testing.T) {
	if _, err := parseCreateOpts(map[string]string{"filesystem": "xfs"}); err == nil {
		t.Fatal("expected error for unsupported filesystem")
	}
}

func TestParseCreateOptsRejectsNonNumericSize(t *testing.T) {
	if _, err := parseCreateOpts(map[string]string{"size": "huge"}); err == nil {
		t.Fatal("expected error for non-numeric size")
	}
}

func TestParseCreateOptsRejectsZeroSize(t *testing.T) {
	if _, err := parseCreateOpts(map[string]string{"size": "0"}); err == nil {
		t.Fatal("expected error for zero size")
	}
}
