package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

var sourceColors = map[domain.FindingSource]lipgloss.Color{
	domain.SourceExternalAPI: lipgloss.Color("12"),
	domain.SourceWeb:         lipgloss.Color("10"),
	domain.SourceCodebase:    lipgloss.Color("11"),
}

// printer writes command output, colouring it only for terminals.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	return &printer{w: w, color: !noColor && isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) bold(text string) string {
	return p.style(lipgloss.NewStyle().Bold(true), text)
}

func (p *printer) dim(text string) string {
	return p.style(lipgloss.NewStyle().Faint(true), text)
}

func (p *printer) source(src domain.FindingSource) string {
	return p.style(lipgloss.NewStyle().Foreground(sourceColors[src]), "["+src.String()+"]")
}

func (p *printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) Println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

// preview prints the summary lines shared by list and search.
func (p *printer) preview(f domain.FindingPreview) {
	p.Printf("%s %s %s\n", p.dim(f.ID), p.source(f.Source), f.Title)
	if f.WorkItemID != "" {
		p.Printf("  %s\n", p.dim("Work item: "+f.WorkItemID))
	}
	content := f.Content
	if f.Truncated {
		content += "..."
	}
	p.Printf("  %s\n\n", p.dim(content))
}

func (p *printer) finding(f *domain.Finding) {
	p.Println(p.bold(f.Title))
	p.Println(p.dim(fmt.Sprintf("ID: %s | Source: %s | Relevance: %g", f.ID, f.Source, f.Relevance)))
	if f.WorkItemID != "" {
		p.Println(p.dim("Work item: " + f.WorkItemID))
	}
	if f.Query != "" {
		p.Println(p.dim("Query: " + f.Query))
	}
	if f.URL != "" {
		p.Println(p.dim("URL: " + f.URL))
	}
	p.Println(p.dim("Created: " + f.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	if len(f.Metadata) > 0 {
		meta, _ := json.Marshal(f.Metadata)
		p.Println(p.dim("Metadata: " + string(meta)))
	}
	p.Printf("\n%s\n", f.Content)
}

func (p *printer) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	p.Println(string(data))
	return nil
}
