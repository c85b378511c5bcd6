// Package state persists the set of job-posting URLs already reported.
// The URL is the sole identity of a posting; the set only grows.
package state

// Diff returns the URL set of listings not yet in seen, preserving
// nothing about order (callers keep their own slices ordered).
func Diff(current, seen map[string]struct{}) map[string]struct{} {
	fresh := make(map[string]struct{})
	for url := range current {
		if _, ok := seen[url]; !ok {
			fresh[url] = struct{}{}
		}
	}
	return fresh
}

// Union returns a new set containing every URL from both inputs.
func Union(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for url := range a {
		out[url] = struct{}{}
	}
	for url := range b {
		out[url] = struct{}{}
	}
	return out
}
