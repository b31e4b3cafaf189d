// Package catalog defines the rule catalog types consumed by the matching
// and packaging engine.
//
// A [Rule] is a unit of AI-assistant guidance with optional tags and
// compatibility metadata. A [Dependency] is a pairwise declaration between
// two rules; only [DependencyConflicts] edges affect package generation.
package catalog
