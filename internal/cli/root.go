package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teamcutter/unarc/internal/archive"
	"github.com/teamcutter/unarc/internal/cache"
	"github.com/teamcutter/unarc/internal/config"
	"github.com/teamcutter/unarc/internal/fetcher"
	"github.com/teamcutter/unarc/internal/logging"
	"github.com/teamcutter/unarc/internal/manager"
	"github.com/teamcutter/unarc/internal/state"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func Execute() error {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "unarc",
		Short:         "List, extract and install archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default ~/.unarc/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newListCmd(flags),
		newExtractCmd(flags),
		newInstallCmd(flags),
		newUninstallCmd(flags),
		newInstalledCmd(flags),
		newClearCmd(flags),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
		return err
	}
	return nil
}

// env is what every command needs: the loaded config and a logger.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv(flags *globalFlags) (*env, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}

	logger, err := logging.New(level)
	if logger == nil {
		return nil, err
	}
	if err != nil {
		logger.Warn("invalid log level", zap.Error(err))
	}

	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) archiveOptions() []archive.Option {
	return []archive.Option{
		archive.WithTarPath(e.cfg.Backends.Tar),
		archive.WithZipinfoPath(e.cfg.Backends.Zipinfo),
		archive.WithUnzipPath(e.cfg.Backends.Unzip),
		archive.WithLogger(e.logger),
	}
}

// newManager wires the package manager. The returned func releases the state
// database and flushes the logger.
func (e *env) newManager() (*manager.Manager, func(), error) {
	c, err := cache.New(e.cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}

	s, err := state.NewSQLite(e.cfg.StateFile, e.logger)
	if err != nil {
		return nil, nil, err
	}

	f := fetcher.New(e.cfg.CacheDir, 1*time.Hour,
		fetcher.WithProgressOutput(os.Stdout),
		fetcher.WithLogger(e.logger))

	mgr := manager.New(f, c, archive.Opener(e.archiveOptions()...), s, e.cfg.PackagesDir,
		manager.WithPollInterval(e.cfg.PollInterval()),
		manager.WithLogger(e.logger))

	return mgr, func() {
		s.Close()
		_ = e.logger.Sync()
	}, nil
}
