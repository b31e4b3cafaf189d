// Package match scores catalog rules against a wizard configuration and
// classifies the matched rules into specificity levels.
//
// Scoring is additive: every matching signal adds a fixed increment and an
// audit reason. Rules scoring zero are excluded. The matched set is ordered
// from general to specific, and by descending score within a level, so that
// packages apply general rules before specific overrides.
package match
