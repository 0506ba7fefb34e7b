// Package aggregates defines domain-facing aggregate contracts for the course
// hierarchy.
//
// Contracts here avoid persistence details. They name the write boundaries where
// sibling-order invariants must hold atomically, and the coded errors those
// writes return.
package aggregates
