package env

import (
	"os"
	"regexp"
)

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces ${VAR} references using lookup. Unknown variables are left
// as written so a missing secret is visible instead of silently empty.
func Expand(s string, lookup func(string) (string, bool)) string {
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return match
	})
}

// ExpandEnv expands ${VAR} references from the OS environment.
func ExpandEnv(s string) string {
	return Expand(s, os.LookupEnv)
}

// ExpandMap returns a copy of m with every value passed through ExpandEnv.
func ExpandMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = ExpandEnv(v)
	}
	return out
}
