// Package expr provides CEL (Common Expression Language) environments for
// selecting IDE layouts from a wizard configuration.
//
// Environments include the CEL math, strings and lists extensions plus:
//   - fold(string): lower-cases and strips diacritics
//   - overlaps(string, string): case-insensitive substring match in either direction
//   - hasAny(list<string>, list<string>): true if any element of the first list
//     overlaps any element of the second
//   - envString(map, string): the string form of an environment detail, or ""
package expr
