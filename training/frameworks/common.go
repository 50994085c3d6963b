package frameworks

import (
	"fmt"
	"sort"
	"strings"
)

// LaunchConfig describes one serving engine invocation
type LaunchConfig struct {
	Bin         string
	Args        []string
	Environment map[string]string // added on top of the supervisor's own environment
}

// Environ merges the launch environment over base, in KEY=VALUE form.
// Keys are emitted in sorted order so the result is deterministic.
func (lc *LaunchConfig) Environ(base []string) []string {
	env := make([]string, 0, len(base)+len(lc.Environment))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := lc.Environment[key]; overridden {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(lc.Environment))
	for k := range lc.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, lc.Environment[k]))
	}
	return env
}

// String renders the command line for logs
func (lc *LaunchConfig) String() string {
	return strings.Join(append([]string{lc.Bin}, lc.Args...), " ")
}
