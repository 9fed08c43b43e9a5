// Package template implements the safe placeholder substitution applied to
// per-container template files.
package template

import "regexp"

// Suffix marks files subject to substitution; everything else under a
// template subdirectory is copied verbatim.
const Suffix = ".tmpl"

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// Render replaces ${Key} placeholders with values from the context.
// Unresolved placeholders stay in the output as literal text; rendering
// never fails on a missing key.
func Render(content string, context map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		key := match[2 : len(match)-1]
		if value, ok := context[key]; ok {
			return value
		}
		return match
	})
}
