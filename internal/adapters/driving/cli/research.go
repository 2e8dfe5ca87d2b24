package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinyobjectz/beans/internal/adapters/driven/config/file"
	"github.com/shinyobjectz/beans/internal/core/domain"
)

var (
	addID          string
	addWorkItem    string
	addQuery       string
	addSource      string
	addTitle       string
	addContent     string
	addContentFile string
	addURL         string
	addRelevance   float64
	addMeta        []string
	addJSON        bool

	listWorkItem string
	listSource   string
	listLimit    int
	listJSON     bool

	searchLimit int
	searchJSON  bool

	showJSON bool
	forJSON  bool
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Manage the research database",
	Long: `Store, list and search research findings.

Findings are kept in .beans/research.db unless --db or research.database
says otherwise. Each finding records where it came from (external_api, web
or codebase) and may be linked to a work item.`,
}

var researchAddCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"insert"},
	Short:   "Store a new finding",
	Long: `Store a new finding.

Content is taken from --content, or read from --content-file (use - for
stdin). A finding with the same work item, URL and title as an existing one
is rejected.

Examples:
  beans research add --source web --title "Rate limiting" \
    --work-item issue-1 --url https://example.com/a --content "Token bucket..."

  curl -s https://example.com/a | beans research add --source web \
    --title "Rate limiting" --content-file -`,
	Args: cobra.NoArgs,
	RunE: runResearchAdd,
}

var researchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored findings, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runResearchList,
}

var researchSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search findings",
	Long: `Search finding titles, content and queries.

Query syntax:
  rate limit        both words
  "token bucket"    exact phrase
  limit*            prefix
  redis OR memcache either word
  -redis, NOT redis exclude a word`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearchSearch,
}

var researchShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a full finding",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearchShow,
}

var researchForCmd = &cobra.Command{
	Use:   "for <work-item-id>",
	Short: "List findings linked to a work item, most relevant first",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearchFor,
}

func init() {
	f := researchAddCmd.Flags()
	f.StringVar(&addID, "id", "", "finding id (generated when empty)")
	f.StringVar(&addWorkItem, "work-item", "", "work item the finding belongs to")
	f.StringVar(&addWorkItem, "issue", "", "alias for --work-item")
	f.StringVar(&addQuery, "query", "", "query that produced the finding")
	f.StringVar(&addSource, "source", "", "where the finding came from: external_api, web or codebase")
	f.StringVar(&addTitle, "title", "", "short title")
	f.StringVar(&addContent, "content", "", "finding content")
	f.StringVar(&addContentFile, "content-file", "", "read content from a file (- for stdin)")
	f.StringVar(&addURL, "url", "", "provenance URL")
	f.Float64Var(&addRelevance, "relevance", domain.DefaultRelevance, "relevance between 0 and 1")
	f.StringArrayVar(&addMeta, "meta", nil, "metadata key=value (repeatable)")
	f.BoolVar(&addJSON, "json", false, "output the stored id as JSON")
	_ = f.MarkHidden("issue")
	_ = researchAddCmd.MarkFlagRequired("source")
	_ = researchAddCmd.MarkFlagRequired("title")
	researchAddCmd.MarkFlagsMutuallyExclusive("content", "content-file")

	f = researchListCmd.Flags()
	f.StringVar(&listWorkItem, "work-item", "", "only findings for this work item")
	f.StringVar(&listWorkItem, "issue", "", "alias for --work-item")
	f.StringVar(&listSource, "source", "", "only findings from this source")
	f.IntVarP(&listLimit, "limit", "n", 0, "maximum number of results (default research.list_limit)")
	f.BoolVar(&listJSON, "json", false, "output results as JSON")
	_ = f.MarkHidden("issue")

	researchSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default research.list_limit)")
	researchSearchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")

	researchShowCmd.Flags().BoolVar(&showJSON, "json", false, "output the finding as JSON")
	researchForCmd.Flags().BoolVar(&forJSON, "json", false, "output results as JSON")

	researchCmd.AddCommand(researchAddCmd)
	researchCmd.AddCommand(researchListCmd)
	researchCmd.AddCommand(researchSearchCmd)
	researchCmd.AddCommand(researchShowCmd)
	researchCmd.AddCommand(researchForCmd)
	rootCmd.AddCommand(researchCmd)
}

// runResearchAdd checks its flags before the database is opened, so bad
// input never creates state on disk.
func runResearchAdd(cmd *cobra.Command, _ []string) error {
	source, err := domain.ParseFindingSource(addSource)
	if err != nil {
		return err
	}
	content, err := readContent(cmd)
	if err != nil {
		return err
	}
	metadata, err := parseMeta(addMeta)
	if err != nil {
		return err
	}

	svc, err := research()
	if err != nil {
		return err
	}

	id, err := svc.Add(cmd.Context(), domain.Finding{
		ID:         addID,
		WorkItemID: addWorkItem,
		Query:      addQuery,
		Source:     source,
		Title:      addTitle,
		Content:    content,
		URL:        addURL,
		Relevance:  addRelevance,
		Metadata:   metadata,
	})
	if err != nil {
		return fmt.Errorf("storing finding: %w", err)
	}

	p := newPrinter(cmd)
	if addJSON {
		return p.printJSON(map[string]string{"id": id})
	}
	p.Printf("Stored finding %s\n", id)
	return nil
}

func readContent(cmd *cobra.Command) (string, error) {
	switch addContentFile {
	case "":
		return addContent, nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading content from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(addContentFile)
		if err != nil {
			return "", fmt.Errorf("reading content file: %w", err)
		}
		return string(data), nil
	}
}

// parseMeta turns key=value pairs into metadata, typing values the same way
// config set does.
func parseMeta(pairs []string) (map[string]any, error) {
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: metadata %q is not key=value", domain.ErrInvalidInput, pair)
		}
		meta[key] = file.ParseValue(value)
	}
	return meta, nil
}

func runResearchList(cmd *cobra.Command, _ []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	filter := domain.ListFilter{WorkItemID: listWorkItem}
	if listSource != "" {
		source, err := domain.ParseFindingSource(listSource)
		if err != nil {
			return err
		}
		filter.Source = source
	}

	findings, err := svc.List(cmd.Context(), filter, listLimit)
	if err != nil {
		return fmt.Errorf("listing findings: %w", err)
	}

	p := newPrinter(cmd)
	if listJSON {
		return p.printJSON(findings)
	}

	p.Printf("%s (%d)\n\n", p.bold("Research Findings"), len(findings))
	if len(findings) == 0 {
		p.Println("No research stored yet.")
		return nil
	}
	for i := range findings {
		p.preview(findings[i])
	}
	return nil
}

func runResearchSearch(cmd *cobra.Command, args []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	findings, err := svc.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	p := newPrinter(cmd)
	if searchJSON {
		return p.printJSON(findings)
	}

	p.Printf("%s (%d results)\n\n", p.bold(fmt.Sprintf("Search: %q", query)), len(findings))
	if len(findings) == 0 {
		p.Println("No results found.")
		return nil
	}
	for i := range findings {
		p.preview(findings[i])
	}
	return nil
}

func runResearchShow(cmd *cobra.Command, args []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	finding, err := svc.Show(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting finding: %w", err)
	}
	if finding == nil {
		return fmt.Errorf("research %s %w", args[0], domain.ErrNotFound)
	}

	p := newPrinter(cmd)
	if showJSON {
		return p.printJSON(finding)
	}
	p.finding(finding)
	return nil
}

func runResearchFor(cmd *cobra.Command, args []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	findings, err := svc.ForWorkItem(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing findings for work item: %w", err)
	}

	p := newPrinter(cmd)
	if forJSON {
		return p.printJSON(findings)
	}

	p.Printf("%s (%d findings)\n\n", p.bold("Research for "+args[0]), len(findings))
	for _, f := range findings {
		p.Printf("%s %s %s (%.0f%%)\n", p.dim(f.ID), p.source(f.Source), f.Title, f.Relevance*100)
	}
	return nil
}
