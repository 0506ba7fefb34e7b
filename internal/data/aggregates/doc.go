// Package aggregates contains infrastructure implementations of domain aggregate contracts.
//
// Implementations in this package compose table-level repos from internal/data/repos
// and own transaction boundaries for invariant-critical write operations: the dense
// sibling order of every child collection in the course hierarchy.
package aggregates
