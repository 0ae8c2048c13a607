// Package git provides the object store the rebaser works against.
//
// It wraps go-git and provides a small Go-friendly interface for:
//   - Opening repositories on disk or in memory
//   - Reading, hashing and writing commit and tree objects
//   - Resolving references and updating them with compare-and-swap
//
// This package should be the only place where go-git storage is touched directly.
package git
