package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/balena-os/luks-volume-driver/internal/config"
	"github.com/balena-os/luks-volume-driver/internal/driver"
	"github.com/balena-os/luks-volume-driver/internal/engine"
	"github.com/balena-os/luks-volume-driver/internal/hsm"
	"github.com/balena-os/luks-volume-driver/internal/rpc"
)

// Version information (set via ldflags during build).
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var cli = config.DefaultCLI()

var rootCmd = &cobra.Command{
	Use:     "luks-volume-plugin",
	Short:   "Container-platform volume plugin for LUKS-encrypted volumes",
	Version: Version,
	RunE:    run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cli.UnixSocket, "unix-socket", cli.UnixSocket, "Unix socket path for the plugin protocol")
	flags.StringVar(&cli.DataDir, "data-dir", "", "root directory for per-volume LUKS images and keyfiles (required)")
	flags.StringVar(&cli.MountDir, "mount-dir", "", "root directory under which volumes are mounted (required)")
	flags.StringVar(&cli.ConfigJSONPath, "config-json", cli.ConfigJSONPath, "path to the on-device identity document")
	flags.StringVar(&cli.APIVersion, "api-version", cli.APIVersion, "CloudLock API version path segment")
	flags.BoolVar(&cli.Debug, "debug", false, "enable debug-level logging")
	flags.StringVar(&cli.LogDir, "log-dir", cli.LogDir, "directory log files are written to")
}

func run(cmd *cobra.Command, args []string) error {
	if err := cli.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cli, "luks-volume-plugin")
	if err != nil {
		return err
	}
	logger.Info("starting luks-volume-plugin", "version", Version, "build_time", BuildTime, "debug", cli.Debug)

	h, err := buildHSM(cli, logger)
	if err != nil {
		logger.Error("failed to construct HSM", "err", err)
		return err
	}

	if err := os.MkdirAll(cli.DataDir, 0o700); err != nil {
		logger.Error("failed to create data dir", "err", err)
		return err
	}
	if err := os.MkdirAll(cli.MountDir, 0o755); err != nil {
		logger.Error("failed to create mount dir", "err", err)
		return err
	}

	eng, err := engine.New(cli.DataDir, cli.MountDir, h, logger)
	if err != nil {
		logger.Error("failed to construct engine", "err", err)
		return err
	}

	vd := driver.New(eng, logger)

	srv, err := rpc.New(cli.UnixSocket, vd, logger)
	if err != nil {
		logger.Error("failed to construct rpc dispatcher", "err", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil {
			logger.Error("rpc dispatcher exited with error", "err", err)
		}
		return err
	}
}

// buildHSM constructs the Cloud HSM when the identity document has enough
// information, falling back to Passthrough otherwise (§4.1: default when
// no identity doc is configured).
func buildHSM(cli *config.CLI, logger *slog.Logger) (hsm.HSM, error) {
	identity, err := config.LoadIdentity(cli.ConfigJSONPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no identity document found, using passthrough HSM", "path", cli.ConfigJSONPath)
			return hsm.NewPassthrough(), nil
		}
		return nil, err
	}

	if !identity.HasCloudHSM() {
		logger.Info("identity document lacks apiEndpoint/deviceApiKeys, using passthrough HSM")
		return hsm.NewPassthrough(), nil
	}

	apiKey, err := identity.APIKeyForEndpoint(identity.APIEndpoint)
	if err != nil {
		return nil, err
	}

	rootCA, _ := identity.RootCAPEM()

	return hsm.NewCloudHSM(hsm.CloudConfig{
		APIEndpoint: identity.APIEndpoint,
		UUID:        identity.UUID,
		APIVersion:  cli.APIVersion,
		APIKey:      apiKey,
		RootCAPEM:   rootCA,
	}, logger)
}
