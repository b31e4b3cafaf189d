// Package layout defines the on-disk layouts of generated rule packages and
// the CEL selectors that choose a layout for a wizard configuration.
//
// A [Profile] describes where rule files go and how they are rendered. A
// [Selector] pairs a CEL expression with a profile name; selectors are
// evaluated in order and the first match wins. When nothing matches, the
// "generic" profile is used.
//
// Selector expressions have access to variables:
//   - `ide` (string): the lower-cased environmentDetails.targetIde, or ""
//   - `env` (map<string, dyn>): all environment details
//   - `stacks`, `languages`, `tools` (list<string>): the selected ids
package layout
