package contextinfo

import "os"

// EnvironmentNames filters the configured names down to variables that are
// actually set in the current environment. Only names cross the process
// boundary; values never do.
func EnvironmentNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := os.LookupEnv(name); ok {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
