package version

import (
	"slices"
	"strings"
)

// Candidate is anything with a version that belongs to an architecture, scope and
// installer type group.
type Candidate interface {
	VersionString() string
	GroupFields() (arch, scope, installerType string)
}

type groupKey struct {
	arch, scope, installerType string
}

// SelectLatestPerGroup keeps the highest version of every (architecture, scope,
// installer type) group. Candidates whose type is not in typeFilter are dropped first;
// an empty filter keeps all. Missing group fields default to x64, user and exe.
// Groups are returned in the order they were first seen.
func SelectLatestPerGroup[T Candidate](candidates []T, typeFilter []string) []T {
	allowed := lowerSet(typeFilter)

	var order []groupKey
	groups := make(map[groupKey][]T)
	for _, c := range candidates {
		arch, scope, typ := c.GroupFields()
		if len(allowed) > 0 {
			if _, ok := allowed[strings.ToLower(typ)]; !ok {
				continue
			}
		}
		k := groupKey{
			arch:          strings.ToLower(orDefault(arch, "x64")),
			scope:         strings.ToLower(orDefault(scope, "user")),
			installerType: strings.ToLower(orDefault(typ, "exe")),
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	selected := make([]T, 0, len(order))
	for _, k := range order {
		g := groups[k]
		slices.SortStableFunc(g, func(a, b T) int {
			return Compare(b.VersionString(), a.VersionString())
		})
		selected = append(selected, g[0])
	}
	return selected
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
