package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/adapters/driven/config/file"
	"github.com/shinyobjectz/beans/internal/adapters/driven/storage/memory"
	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/services"
)

// setupTestServices injects an in-memory research service and a config
// store in a temporary directory, and resets flags left over from earlier
// commands.
func setupTestServices(t *testing.T) *services.ResearchService {
	t.Helper()

	origResearch, origConfig, origClose := researchService, configStore, closeStore
	t.Cleanup(func() {
		researchService, configStore, closeStore = origResearch, origConfig, origClose
		resetFlags(rootCmd)
	})
	resetFlags(rootCmd)

	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	svc := services.NewResearchService(memory.NewFindingStore(), domain.DefaultSettings(""))
	n := 0
	svc.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	})

	researchService = svc
	configStore = store
	closeStore = nil
	return svc
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// addFinding stores a finding through the command line.
func addFinding(t *testing.T, args ...string) {
	t.Helper()
	_, err := execute(t, append([]string{"research", "add"}, args...)...)
	require.NoError(t, err)
}
