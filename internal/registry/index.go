package registry

import "sort"

// Dependents returns the ids of actions that declared id as a dependency,
// sorted for determinism.
func (r *Registry) Dependents(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.dependents[id])
}

// ByTag returns the ids of actions carrying tag, sorted.
func (r *Registry) ByTag(tag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.tags[tag])
}

// ByTags returns the ids of actions carrying every one of tags, sorted.
// With no tags it returns nil.
func (r *Registry) ByTags(tags ...string) []string {
	if len(tags) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Start from the smallest set to keep the intersection cheap.
	smallest := r.tags[tags[0]]
	for _, tag := range tags[1:] {
		if len(r.tags[tag]) < len(smallest) {
			smallest = r.tags[tag]
		}
	}

	var out []string
	for id := range smallest {
		matchesAll := true
		for _, tag := range tags {
			if _, ok := r.tags[tag][id]; !ok {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
