// Package index holds the in-memory search structures for kiitbot.
//
// An index is an immutable Snapshot: lexical postings from terms to
// document ids plus an optional embedding vector per document. Writers
// derive a new Snapshot from the current one and publish it through a
// Holder; readers load the current pointer and never observe a
// half-built index.
//
// # Architectural Position
//
// Index is part of the core. It depends only on domain and is driven by
// the indexer and search services.
//
// # Import Rules
//
//   - Can Import: domain, standard library
//   - Cannot Import: ports, services, adapters
package index
