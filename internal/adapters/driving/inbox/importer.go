package inbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driving"
	"github.com/shinyobjectz/beans/internal/logger"
)

// Rejection records a file or finding that could not be imported.
type Rejection struct {
	Path  string
	Index int // -1 when the whole file was rejected
	Err   error
}

func (r Rejection) String() string {
	if r.Index < 0 {
		return fmt.Sprintf("%s: %v", r.Path, r.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", r.Path, r.Index, r.Err)
}

// Report summarises an import run.
type Report struct {
	Files      int
	Inserted   []string
	Duplicates int
	Rejected   []Rejection
}

// Add merges another report into r.
func (r *Report) Add(other Report) {
	r.Files += other.Files
	r.Inserted = append(r.Inserted, other.Inserted...)
	r.Duplicates += other.Duplicates
	r.Rejected = append(r.Rejected, other.Rejected...)
}

// Importer stores findings decoded from files.
type Importer struct {
	research driving.ResearchService
}

// NewImporter creates an importer writing through the research service.
func NewImporter(research driving.ResearchService) *Importer {
	return &Importer{research: research}
}

// ImportFiles imports every finding in paths. Duplicates are counted, not
// treated as failures, and invalid files or findings are reported as
// rejections. Only a storage failure stops the run and is returned.
func (im *Importer) ImportFiles(ctx context.Context, paths []string) (Report, error) {
	var report Report
	for _, path := range paths {
		r, err := im.ImportFile(ctx, path)
		report.Add(r)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// ImportFile imports the findings in one file.
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	report := Report{Files: 1}

	entries, err := DecodeFile(path)
	if err != nil {
		logger.Warn("Rejected %s: %v", path, err)
		report.Rejected = append(report.Rejected, Rejection{Path: path, Index: -1, Err: err})
		return report, nil
	}
	logger.Debug("Decoded %d findings from %s", len(entries), path)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if entry.Err != nil {
			report.Rejected = append(report.Rejected, Rejection{Path: path, Index: entry.Index, Err: entry.Err})
			continue
		}

		id, err := im.research.Add(ctx, entry.Finding)
		switch {
		case err == nil:
			report.Inserted = append(report.Inserted, id)
		case errors.Is(err, domain.ErrDuplicateFinding):
			report.Duplicates++
		case errors.Is(err, domain.ErrStorage):
			return report, fmt.Errorf("importing %s: %w", path, err)
		default:
			report.Rejected = append(report.Rejected, Rejection{Path: path, Index: entry.Index, Err: err})
		}
	}

	logger.Info("Imported %s: %d inserted, %d duplicates, %d rejected",
		path, len(report.Inserted), report.Duplicates, len(report.Rejected))
	return report, nil
}
