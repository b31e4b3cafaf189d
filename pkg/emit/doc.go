// Package emit renders a resolved rule set into a downloadable package.
//
// Each output format has its own [Emitter]; a [Registry] dispatches on the
// configuration's output format. Emitters share one pipeline: rules are
// grouped by level in general-to-specific order, each rule is assigned a
// category folder from its tags, and one file is rendered per rule.
//
// Rule content may embed configuration files as fenced code blocks. These are
// collected by [ExtractFiles] and merged across rules by a [Bundle].
package emit
