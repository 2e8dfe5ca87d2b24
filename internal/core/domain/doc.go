// Package domain defines the core business entities for beans research.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Finding: One attributed research note, optionally linked to a work item
//   - FindingSource: The fixed set of places a finding can come from
//   - FindingPreview: A display projection with truncated content
//   - SearchQuery: A parsed full-text query shared by every store adapter
//   - Settings: Explicit store configuration passed in at open time
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
