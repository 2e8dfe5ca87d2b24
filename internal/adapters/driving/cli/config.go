package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/shinyobjectz/beans/internal/adapters/driven/config/file"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change settings stored in config.toml.

Recognised keys:
  research.database               database path (default .beans/research.db)
  research.list_limit             default result limit (default 20)
  research.preview_length         list preview length in characters (default 100)
  research.search_preview_length  search preview length in characters (default 200)
  research.clamp_relevance        clamp relevance into [0, 1] (default true)`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := config()
	if err != nil {
		return err
	}
	s, err := settings()
	if err != nil {
		return err
	}

	p := newPrinter(cmd)
	p.Println(p.bold("Current Settings"))
	p.Printf("  Config file: %s\n\n", store.Path())
	p.Printf("  %-32s %s\n", file.KeyDatabase, s.DatabasePath)
	p.Printf("  %-32s %d\n", file.KeyListLimit, s.ListLimit)
	p.Printf("  %-32s %d\n", file.KeyPreviewLength, s.PreviewLength)
	p.Printf("  %-32s %d\n", file.KeySearchPreviewLength, s.SearchPreviewLength)
	p.Printf("  %-32s %t\n", file.KeyClampRelevance, s.ClampRelevance)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if !slices.Contains(file.SettingsKeys(), key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	store, err := config()
	if err != nil {
		return err
	}
	value := file.ParseValue(raw)
	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	newPrinter(cmd).Printf("Set %s = %v\n", key, value)
	return nil
}
