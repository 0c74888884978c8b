// Package domain defines the core business entities for playbookbot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Playbook: An indexed task or document with its embedding
//   - SourceItem: An item as yielded by a source connector
//   - SyncRun: The audit record of one synchronisation pass
//   - SearchResult: A playbook paired with its similarity score
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
