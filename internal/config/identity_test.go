package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadIdentityValid(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "config.json", `{
		"uuid": "device-1",
		"apiEndpoint": "https://api.balena-dev.com",
		"deviceApiKeys": {"api.balena-dev.com": "secret-key"}
	}`)

	identity, err := LoadIdentity(path)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if identity.UUID != "device-1" || identity.APIEndpoint != "https://api.balena-dev.com" {
		t.Fatalf("got %+v", identity)
	}
	if !identity.HasCloudHSM() {
		t.Fatal("expected HasCloudHSM to be true")
	}

	key, err := identity.APIKeyForEndpoint(identity.APIEndpoint)
	if err != nil || key != "secret-key" {
		t.Fatalf("APIKeyForEndpoint: key=%q err=%v", key, err)
	}
}

func TestLoadIdentityMissingUUIDIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "config.json", `{"apiEndpoint": "https://x"}`)

	_, err := LoadIdentity(path)
	var cfgErr ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for missing uuid, got %v", err)
	}
}

func TestLoadIdentityMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "config.json", `{not json`)

	if _, err := LoadIdentity(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadIdentityMissingFile(t *testing.T) {
	if _, err := LoadIdentity("/nonexistent/config.json"); !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestHasCloudHSMFalseWithoutKeys(t *testing.T) {
	identity := &Identity{UUID: "d", APIEndpoint: "https://x"}
	if identity.HasCloudHSM() {
		t.Fatal("expected false without deviceApiKeys")
	}
}

func TestAPIKeyForEndpointStripsScheme(t *testing.T) {
	identity := &Identity{DeviceAPIKeys: map[string]string{"api.example.com": "k"}}
	key, err := identity.APIKeyForEndpoint("https://api.example.com")
	if err != nil || key != "k" {
		t.Fatalf("key=%q err=%v", key, err)
	}
}

func TestAPIKeyForEndpointUnknownHost(t *testing.T) {
	identity := &Identity{DeviceAPIKeys: map[string]string{}}
	if _, err := identity.APIKeyForEndpoint("https://nope.example.com"); err == nil {
		t.Fatal("expected error for unknown endpoint")
	}
}

func TestRootCAPEMDecodesBase64(t *testing.T) {
	identity := &Identity{BalenaRootCA: "aGVsbG8="}
	decoded, ok := identity.RootCAPEM()
	if !ok || string(decoded) != "hello" {
		t.Fatalf("decoded=%q ok=%v", decoded, ok)
	}
}

func TestRootCAPEMAbsentWhenEmpty(t *testing.T) {
	identity := &Identity{}
	if _, ok := identity.RootCAPEM(); ok {
		t.Fatal("expected no root CA")
	}
}
