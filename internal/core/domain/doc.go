// Package domain defines the core business entities for kiitbot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A versioned notice or course record
//   - Filters: The hard filters recognised by retrieval
//   - RetrievalResult: The ranked hits for a query
//   - ContextBundle: The bounded excerpts handed to the language model
//   - Answer: A generated, cited response
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
