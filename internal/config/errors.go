package config

import "fmt"

// ConfigError reports a malformed or unusable configuration input: a
// present-but-invalid identity document, an unparsable CLI flag, or a
// missing required value. It is never returned for a simply-absent
// identity document, which callers treat as "use Passthrough".
type ConfigError struct {
	Detail string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Detail)
}

