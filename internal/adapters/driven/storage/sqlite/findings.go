package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/logger"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

const findingColumns = `f.id, f.work_item_id, f.query, f.source, f.title, f.content,
	f.url, f.relevance, f.metadata, f.created_at`

// Insert validates and stores a finding. The row and its full-text entry are
// written in one transaction by the insert trigger.
func (s *Store) Insert(ctx context.Context, finding domain.Finding) (string, error) {
	if err := finding.Validate(); err != nil {
		return "", err
	}

	metadata := []byte("{}")
	if len(finding.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(finding.Metadata)
		if err != nil {
			return "", fmt.Errorf("%w: marshalling metadata: %w", domain.ErrInvalidInput, err)
		}
	}

	createdAt := finding.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var existing string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM findings WHERE work_item_id = ? AND url = ? AND title = ?
	`, finding.WorkItemID, finding.URL, finding.Title).Scan(&existing)
	switch {
	case err == nil:
		return "", duplicateErr(finding, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return "", storageErr("checking duplicate finding", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO findings (id, work_item_id, query, source, title, content, url, relevance, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		finding.ID,
		finding.WorkItemID,
		finding.Query,
		string(finding.Source),
		finding.Title,
		finding.Content,
		finding.URL,
		finding.Relevance,
		string(metadata),
		createdAt.UnixMilli(),
	)
	if err != nil {
		return "", insertErr(finding, err)
	}

	if err := tx.Commit(); err != nil {
		return "", storageErr("committing finding", err)
	}
	return finding.ID, nil
}

func duplicateErr(f domain.Finding, existing string) error {
	return fmt.Errorf("%w: %q already stored as %s (work item %q, url %q)",
		domain.ErrDuplicateFinding, f.Title, existing, f.WorkItemID, f.URL)
}

// insertErr classifies constraint violations by their extended result code.
func insertErr(f domain.Finding, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			if strings.Contains(se.Error(), "findings.id") {
				return fmt.Errorf("%w: finding %q", domain.ErrAlreadyExists, f.ID)
			}
			return duplicateErr(f, "another finding")
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: %q", domain.ErrInvalidSource, f.Source)
		}
	}
	return storageErr("inserting finding", err)
}

// Get retrieves a finding by ID. Returns nil, nil if not found.
func (s *Store) Get(ctx context.Context, id string) (*domain.Finding, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+findingColumns+` FROM findings f WHERE f.id = ?`, id)

	f, err := scanFinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting finding", err)
	}
	return f, nil
}

// List returns findings matching the filter, most recent first.
// A non-positive limit returns every match.
func (s *Store) List(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Finding, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.WorkItemID != "" {
		conditions = append(conditions, "f.work_item_id = ?")
		args = append(args, filter.WorkItemID)
	}
	if filter.Source != "" {
		conditions = append(conditions, "f.source = ?")
		args = append(args, string(filter.Source))
	}

	query := `SELECT ` + findingColumns + ` FROM findings f`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY f.created_at DESC, f.seq DESC LIMIT ?"
	args = append(args, sqlLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("listing findings", err)
	}
	defer rows.Close()

	return scanFindings(rows)
}

// Search returns findings matching the query ranked by FTS5 bm25, best first.
// Queries FTS5 rejects are reported as no results.
func (s *Store) Search(ctx context.Context, query domain.SearchQuery, limit int) ([]domain.Finding, error) {
	expr := MatchExpression(query)
	if expr == "" {
		return []domain.Finding{}, nil
	}
	logger.Debug("FTS5 match expression: %s", expr)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+findingColumns+`
		FROM findings_fts
		JOIN findings f ON f.seq = findings_fts.rowid
		WHERE findings_fts MATCH ?
		ORDER BY findings_fts.rank, f.seq
		LIMIT ?
	`, expr, sqlLimit(limit))
	if err != nil {
		if isMatchSyntaxErr(err) {
			logger.Debug("Match expression rejected: %v", err)
			return []domain.Finding{}, nil
		}
		return nil, storageErr("searching findings", err)
	}
	defer rows.Close()

	findings, err := scanFindings(rows)
	if err != nil && isMatchSyntaxErr(err) {
		return []domain.Finding{}, nil
	}
	return findings, err
}

func isMatchSyntaxErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") || strings.Contains(msg, "unterminated string")
}

// ForWorkItem returns findings for a work item, highest relevance first and
// insertion order among equals.
func (s *Store) ForWorkItem(ctx context.Context, workItemID string) ([]domain.Finding, error) {
	if workItemID == "" {
		return []domain.Finding{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+findingColumns+` FROM findings f
		WHERE f.work_item_id = ?
		ORDER BY f.relevance DESC, f.seq ASC
	`, workItemID)
	if err != nil {
		return nil, storageErr("listing findings for work item", err)
	}
	defer rows.Close()

	return scanFindings(rows)
}

// All returns every finding, oldest first.
func (s *Store) All(ctx context.Context) ([]domain.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+findingColumns+` FROM findings f ORDER BY f.created_at ASC, f.seq ASC
	`)
	if err != nil {
		return nil, storageErr("listing all findings", err)
	}
	defer rows.Close()

	return scanFindings(rows)
}

// Stats summarises the stored findings.
func (s *Store) Stats(ctx context.Context) (*domain.ResearchStats, error) {
	stats := &domain.ResearchStats{BySource: make(map[domain.FindingSource]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM findings GROUP BY source`)
	if err != nil {
		return nil, storageErr("counting findings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			source string
			count  int
		)
		if err := rows.Scan(&source, &count); err != nil {
			return nil, storageErr("scanning finding counts", err)
		}
		stats.BySource[domain.FindingSource(source)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating finding counts", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT work_item_id) FROM findings WHERE work_item_id != ''
	`).Scan(&stats.WorkItems)
	if err != nil {
		return nil, storageErr("counting work items", err)
	}
	return stats, nil
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFinding(row scanner) (*domain.Finding, error) {
	var (
		f         domain.Finding
		source    string
		metadata  string
		createdAt int64
	)
	err := row.Scan(
		&f.ID, &f.WorkItemID, &f.Query, &source, &f.Title, &f.Content,
		&f.URL, &f.Relevance, &metadata, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	f.Source = domain.FindingSource(source)
	f.CreatedAt = time.UnixMilli(createdAt).UTC()
	f.Metadata = map[string]any{}
	if metadata != "" && metadata != jsonNull {
		if err := json.Unmarshal([]byte(metadata), &f.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata for %s: %w", f.ID, err)
		}
		if f.Metadata == nil {
			f.Metadata = map[string]any{}
		}
	}
	return &f, nil
}

func scanFindings(rows *sql.Rows) ([]domain.Finding, error) {
	findings := []domain.Finding{}
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, storageErr("scanning finding", err)
		}
		findings = append(findings, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating findings", err)
	}
	return findings, nil
}
