package rest

import (
	"cmp"
	"slices"
	"strings"

	"github.com/glorpus-work/wingetmirror/pkg/repository"
)

// AutoInstallRequest lists the directory groups of a client.
type AutoInstallRequest struct {
	Groups []string `json:"groups"`
}

// AutoInstallResult is one package the client should install.
type AutoInstallResult struct {
	AppID string `json:"app_id"`
	Scope string `json:"scope"`
}

// AutoInstallResponse is the body of an auto-install call.
type AutoInstallResponse struct {
	Results []AutoInstallResult `json:"results"`
}

// AutoInstall returns the packages targeted at any of groups. Group names are trimmed
// and compared case-insensitively. Results are unique and sorted by app id, then scope.
func AutoInstall(snap *repository.Snapshot, groups []string) []AutoInstallResult {
	wanted := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g = fold(g); g != "" {
			wanted[g] = struct{}{}
		}
	}

	seen := make(map[AutoInstallResult]struct{})
	results := []AutoInstallResult{}
	for _, e := range snap.All() {
		for _, rule := range e.Package.ADGroupScopes {
			scope := strings.TrimSpace(rule.Scope)
			if scope == "" {
				continue
			}
			if _, ok := wanted[fold(rule.ADGroup)]; !ok {
				continue
			}
			r := AutoInstallResult{AppID: e.Package.Identifier, Scope: scope}
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			results = append(results, r)
		}
	}
	slices.SortFunc(results, func(a, b AutoInstallResult) int {
		return cmp.Or(strings.Compare(a.AppID, b.AppID), strings.Compare(a.Scope, b.Scope))
	})
	return results
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
