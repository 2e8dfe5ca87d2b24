package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shinyobjectz/beans/internal/adapters/driving/inbox"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

var (
	importWatch string

	exportFormat string
	exportOutput string

	doctorRepair bool
)

var researchImportCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Import findings from JSON or YAML files",
	Long: `Import findings from .json, .yaml or .yml files.

A file holds a single finding or a list of findings using the same field
names as export. YAML files may also contain several documents. Findings
already stored are counted as duplicates and skipped.

With --watch, files already in the directory are imported and the directory
is then watched for new or changed files until interrupted.`,
	RunE: runResearchImport,
}

var researchExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every finding, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runResearchExport,
}

var researchStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show research database statistics",
	Args:  cobra.NoArgs,
	RunE:  runResearchStats,
}

var researchDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the search index against stored findings",
	Long: `Check that every stored finding is present in the full-text index.

With --repair, an inconsistent index is rebuilt from the findings table.`,
	Args: cobra.NoArgs,
	RunE: runResearchDoctor,
}

func init() {
	researchImportCmd.Flags().StringVar(&importWatch, "watch", "", "watch a directory for finding files")

	researchExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json or yaml")
	researchExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")

	researchDoctorCmd.Flags().BoolVar(&doctorRepair, "repair", false, "rebuild the index when it is inconsistent")

	researchCmd.AddCommand(researchImportCmd)
	researchCmd.AddCommand(researchExportCmd)
	researchCmd.AddCommand(researchStatsCmd)
	researchCmd.AddCommand(researchDoctorCmd)
}

func runResearchImport(cmd *cobra.Command, args []string) error {
	if importWatch == "" && len(args) == 0 {
		return errors.New("requires at least one file or --watch <dir>")
	}

	svc, err := research()
	if err != nil {
		return err
	}
	importer := inbox.NewImporter(svc)
	p := newPrinter(cmd)

	if importWatch != "" {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher := inbox.NewWatcher(importer, importWatch, inbox.WithOnImport(func(path string, r inbox.Report) {
			p.Printf("%s: %d inserted, %d duplicates, %d rejected\n",
				path, len(r.Inserted), r.Duplicates, len(r.Rejected))
		}))
		p.Printf("Watching %s (Ctrl+C to stop)\n", importWatch)
		return watcher.Run(ctx)
	}

	report, err := importer.ImportFiles(cmd.Context(), args)
	printReport(p, report)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if len(report.Rejected) > 0 {
		return fmt.Errorf("%w: %d rejected", domain.ErrInvalidInput, len(report.Rejected))
	}
	return nil
}

func printReport(p *printer, r inbox.Report) {
	p.Printf("Imported %d findings from %d files (%d duplicates, %d rejected)\n",
		len(r.Inserted), r.Files, r.Duplicates, len(r.Rejected))
	for _, rej := range r.Rejected {
		p.Printf("  rejected %s\n", rej)
	}
}

func runResearchExport(cmd *cobra.Command, _ []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	findings, err := svc.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("exporting findings: %w", err)
	}

	data, err := encodeFindings(findings, exportFormat)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0600); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	newPrinter(cmd).Printf("Exported %d findings to %s\n", len(findings), exportOutput)
	return nil
}

func encodeFindings(findings []domain.Finding, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal findings: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(findings); err != nil {
			return nil, fmt.Errorf("failed to marshal findings: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal findings: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want json or yaml)", domain.ErrInvalidInput, format)
	}
}

func runResearchStats(cmd *cobra.Command, _ []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	p := newPrinter(cmd)
	p.Println(p.bold("Research Database"))
	p.Printf("  Database:   %s\n", svc.Settings().DatabasePath)
	p.Printf("  Findings:   %d\n", stats.Total)
	p.Printf("  Work items: %d\n", stats.WorkItems)
	for _, src := range domain.AllSources() {
		p.Printf("  %-13s %d\n", p.source(src), stats.BySource[src])
	}
	return nil
}

func runResearchDoctor(cmd *cobra.Command, _ []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	if err := svc.Doctor(cmd.Context(), doctorRepair); err != nil {
		return err
	}
	newPrinter(cmd).Println("Search index is consistent.")
	return nil
}
