package config

// CLI holds the process-level configuration parsed from command-line
// flags by cmd/luks-volume-plugin (via cobra). It is distinct from
// Identity, which comes from the on-device identity document.
type CLI struct {
	// UnixSocket is the path the RPC Dispatcher binds to.
	UnixSocket string

	// DataDir is the root directory under which per-volume LUKS images and
	// sealed keyfiles are stored.
	DataDir string

	// MountDir is the root directory under which volumes are activated.
	MountDir string

	// ConfigJSONPath is the path to the on-device identity document.
	ConfigJSONPath string

	// APIVersion selects the CloudLock API version path segment.
	APIVersion string

	// Debug enables verbose (Debug-level) logging.
	Debug bool

	// LogDir is the directory log files are written to.
	LogDir string
}

// DefaultCLI returns a CLI populated with the plugin's documented
// defaults; callers override individual fields from parsed flags.
func DefaultCLI() *CLI {
	return &CLI{
		UnixSocket:     "/run/docker/plugins/luks.sock",
		ConfigJSONPath: "/mnt/boot/config.json",
		APIVersion:     "v1",
		LogDir:         "/var/log/luks-volume-driver",
	}
}

// Validate checks that the required flags were supplied.
func (c *CLI) Validate() error {
	if c.DataDir == "" {
		return ConfigError{Detail: "--data-dir is required"}
	}
	if c.MountDir == "" {
		return ConfigError{Detail: "--mount-dir is required"}
	}
	return nil
}
