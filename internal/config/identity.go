// Package config loads the two configuration inputs the plugin needs at
// startup: the CLI flags (data dir, mount dir, socket path, ...) and the
// on-device Identity Document that drives HSM selection.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Identity is the parsed on-device identity document (§3, §6). It is
// consumed once at startup and not retained beyond constructing the HSM.
type Identity struct {
	UUID          string
	APIEndpoint   string
	DeviceAPIKeys map[string]string
	BalenaRootCA  string // base64-encoded PEM, optional
}

// LoadIdentity reads and parses the identity document at path. A missing
// file is returned as the underlying not-exist error, not as a
// ConfigError — callers that want Passthrough-by-default behavior should
// treat os.IsNotExist specially; a malformed file that exists is always a
// ConfigError.
func LoadIdentity(path string) (*Identity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ConfigError{Detail: fmt.Sprintf("unable to deserialize identity document %s: %v", path, err)}
	}

	uuid, err := stringField(doc, "uuid")
	if err != nil {
		return nil, ConfigError{Detail: err.Error()}
	}

	identity := &Identity{UUID: uuid}

	if v, err := stringField(doc, "apiEndpoint"); err == nil {
		identity.APIEndpoint = v
	}

	if raw, ok := doc["deviceApiKeys"]; ok {
		keys, ok := raw.(map[string]any)
		if !ok {
			return nil, ConfigError{Detail: "deviceApiKeys is not an object"}
		}
		identity.DeviceAPIKeys = make(map[string]string, len(keys))
		for host, v := range keys {
			s, ok := v.(string)
			if !ok {
				return nil, ConfigError{Detail: fmt.Sprintf("deviceApiKeys[%s] is not a string", host)}
			}
			identity.DeviceAPIKeys[host] = s
		}
	}

	if v, err := stringField(doc, "balenaRootCA"); err == nil {
		identity.BalenaRootCA = v
	}

	return identity, nil
}

func stringField(doc map[string]any, key string) (string, error) {
	v, ok := doc[key]
	if !ok {
		return "", fmt.Errorf("key '%s' is bad or missing", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("key '%s' is bad or missing", key)
	}
	return s, nil
}

// HasCloudHSM reports whether the identity document carries enough
// information to construct the Cloud HSM variant.
func (id *Identity) HasCloudHSM() bool {
	return id != nil && id.APIEndpoint != "" && len(id.DeviceAPIKeys) > 0
}

// APIKeyForEndpoint looks up the API key configured for api, stripping the
// URL scheme before the lookup — deviceApiKeys is keyed by bare host, as
// the original balena identity-document consumer does.
func (id *Identity) APIKeyForEndpoint(api string) (string, error) {
	host := stripScheme(api)
	if key, ok := id.DeviceAPIKeys[host]; ok {
		return key, nil
	}
	return "", fmt.Errorf("unable to determine API key for endpoint %s", api)
}

func stripScheme(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return endpoint[len("https://"):]
	case strings.HasPrefix(endpoint, "http://"):
		return endpoint[len("http://"):]
	default:
		return endpoint
	}
}

// RootCAPEM decodes the base64-encoded balenaRootCA field, if present.
func (id *Identity) RootCAPEM() ([]byte, bool) {
	if id == nil || id.BalenaRootCA == "" {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(id.BalenaRootCA)
	if err != nil {
		return nil, false
	}
	return decoded, true
}
