// Package core defines the dialect-neutral query tree of sqlgen.
//
// This package contains:
//   - Statement nodes (Query and its clauses)
//   - Table sources, tables and joins
//   - Expression and predicate variants
//   - Tree services (walking, copy-on-write replacement, structural
//     equality, search condition flattening, finalize/validate)
//   - The single error kind of the generator (Error)
//
// The Golden Rule: pkg/core imports only the standard library and the
// literal value libraries (uuid, decimal). Every other package depends on
// core, not the reverse.
package core
