package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinyobjectz/beans/internal/adapters/driven/config/file"
	"github.com/shinyobjectz/beans/internal/adapters/driven/storage/sqlite"
	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driven"
	"github.com/shinyobjectz/beans/internal/core/ports/driving"
	"github.com/shinyobjectz/beans/internal/core/services"
	"github.com/shinyobjectz/beans/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	dbPath    string
	configDir string
	verbose   bool
	noColor   bool
)

// Services used by commands. They are opened on first use unless injected.
var (
	researchService driving.ResearchService
	configStore     driven.ConfigStore
	closeStore      func() error
)

var rootCmd = &cobra.Command{
	Use:   "beans",
	Short: "Local research findings store",
	Long: `beans keeps research findings gathered by agents and developers in a
project-local SQLite database with full-text search.

Findings are linked to work items, tagged with where they came from
(external_api, web or codebase) and can be listed, searched and exported
from the command line, an MCP server or the terminal UI.

State lives in .beans/ by default:
  .beans/research.db     findings database
  .beans/config.toml     optional settings`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "research database path (overrides research.database)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", domain.DefaultStateDir, "directory holding config.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
}

// SetResearchService injects the research service used by commands.
func SetResearchService(svc driving.ResearchService) {
	researchService = svc
}

// SetConfigStore injects the configuration store used by commands.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

// Execute runs the root command and closes anything it opened.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, shutdown())
}

// ExitCode maps a command error to the process exit status. Storage
// failures exit with 2 so scripts can tell them from bad input.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrStorage):
		return 2
	default:
		return 1
	}
}

func shutdown() error {
	if closeStore == nil {
		return nil
	}
	err := closeStore()
	closeStore = nil
	researchService = nil
	if err != nil {
		return fmt.Errorf("closing research database: %w", err)
	}
	return nil
}

// config returns the configuration store, loading it from --config-dir on
// first use.
func config() (driven.ConfigStore, error) {
	if configStore != nil {
		return configStore, nil
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	configStore = store
	return configStore, nil
}

// settings resolves the effective settings: flags, then config file, then
// defaults.
func settings() (domain.Settings, error) {
	store, err := config()
	if err != nil {
		return domain.Settings{}, err
	}
	s := file.LoadSettings(store, configDir)
	if dbPath != "" {
		s.DatabasePath = dbPath
	}
	return s, nil
}

// research returns the research service, opening the database on first use.
func research() (driving.ResearchService, error) {
	if researchService != nil {
		return researchService, nil
	}

	s, err := settings()
	if err != nil {
		return nil, err
	}
	logger.Debug("Opening research database %s", s.DatabasePath)

	store, err := sqlite.NewStore(s.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening research database: %w", err)
	}
	closeStore = store.Close
	researchService = services.NewResearchService(store, s)
	return researchService, nil
}
