package stage

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-z][a-z0-9_]*)\s*\}\}`)

// Placeholders returns the unique placeholder names referenced by a template,
// in order of first appearance.
func Placeholders(tmpl string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Resolve substitutes every placeholder using the lookup function. A missing
// name is an error; load-time validation makes this unreachable for a valid
// stage plan.
func Resolve(tmpl string, get func(name string) (string, bool)) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := placeholderRe.FindStringSubmatch(ph)[1]
		value, ok := get(name)
		if !ok {
			if missing == "" {
				missing = name
			}
			return ph
		}
		return value
	})
	if missing != "" {
		return "", fmt.Errorf("template references unknown entry %q", missing)
	}
	return out, nil
}
