package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhubert/plural-port/archive"
	"github.com/zhubert/plural-port/config"
	"github.com/zhubert/plural-port/exec"
	"github.com/zhubert/plural-port/logger"
	"github.com/zhubert/plural-port/store"
)

var (
	debugMode             bool
	quietMode             bool
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "plural-port",
	Short: "Package agent sessions into portable archives and restore them",
	Long: `plural-port captures a session's record tree from the local store into a
portable archive, and merges archives back into a store on this or another
machine, rewriting the session's workspace path when it does not exist locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to info level only")
}

func initLogging() {
	if quietMode {
		logger.SetDebug(false)
	} else if debugMode {
		logger.SetDebug(true)
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	defer logger.Close()
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("plural-port %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("plural-port %s\n", version)
}

// loadConfig loads and validates configuration for the data-path commands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) *store.Store {
	return store.New(cfg.StoreDir)
}

func newCompressor() archive.Compressor {
	return archive.NewTarCompressor(exec.GetDefaultExecutor())
}
