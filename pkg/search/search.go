// Package search answers manifest search requests against a repository snapshot.
package search

import (
	"slices"
	"sort"

	"github.com/glorpus-work/wingetmirror/pkg/match"
	"github.com/glorpus-work/wingetmirror/pkg/repository"
)

// Field is a package match field.
type Field int

const (
	// FieldUnsupported covers every protocol field the mirror has no data for.
	FieldUnsupported Field = iota
	FieldPackageIdentifier
	FieldPackageName
	FieldTag
	FieldProductCode
)

var fieldNames = map[string]Field{
	"PackageIdentifier": FieldPackageIdentifier,
	"PackageName":       FieldPackageName,
	"Tag":               FieldTag,
	"ProductCode":       FieldProductCode,
}

// ParseField maps a protocol field name. Unknown names map to FieldUnsupported.
func ParseField(name string) Field {
	return fieldNames[name]
}

// String returns the protocol name of the field.
func (f Field) String() string {
	for name, v := range fieldNames {
		if v == f {
			return name
		}
	}
	return "Unsupported"
}

// Values returns the values of the field for a package. Unsupported fields have none.
func (f Field) Values(e *repository.Entry) []string {
	switch f {
	case FieldPackageIdentifier:
		return []string{e.Package.Identifier}
	case FieldPackageName:
		if e.Package.Name == "" {
			return nil
		}
		return []string{e.Package.Name}
	case FieldTag:
		return e.Package.Tags
	case FieldProductCode:
		var codes []string
		for _, inst := range e.Installers {
			if inst.ProductCode != "" {
				codes = append(codes, inst.ProductCode)
			}
		}
		return codes
	default:
		return nil
	}
}

// Criterion matches one field against a keyword.
type Criterion struct {
	Field     Field
	Keyword   *string
	MatchType match.Type
}

// Request is a search. Query is matched against identifier, name, publisher and tags.
// Inclusions are OR-combined with the query, Filters must all pass.
type Request struct {
	Query          *Criterion
	Inclusions     []Criterion
	Filters        []Criterion
	FetchAll       bool
	MaximumResults int
}

// VersionSummary is one version of a search result.
type VersionSummary struct {
	PackageVersion string
	ProductCodes   []string
}

// Summary is one search result.
type Summary struct {
	PackageIdentifier string
	PackageName       string
	Publisher         string
	Versions          []VersionSummary
}

// Search runs req against snap. Results are ordered by package id. Packages without
// versions are never returned.
func Search(snap *repository.Snapshot, req Request) []Summary {
	all := snap.All()
	var candidates []*repository.Entry

	switch {
	case req.FetchAll:
		candidates = all
	default:
		hasQuery := req.Query != nil && req.Query.Keyword != nil && *req.Query.Keyword != ""
		for _, e := range all {
			if (hasQuery && matchesQuery(e, req.Query)) || matchesAnyInclusion(e, req.Inclusions) {
				candidates = append(candidates, e)
			}
		}
		if len(candidates) == 0 && !hasQuery && len(req.Inclusions) == 0 {
			candidates = all
		}
	}

	results := []Summary{}
	for _, e := range candidates {
		if !passesFilters(e, req.Filters) {
			continue
		}
		s, ok := summarize(e)
		if !ok {
			continue
		}
		results = append(results, s)
		if req.MaximumResults > 0 && len(results) == req.MaximumResults {
			break
		}
	}
	return results
}

func matchesQuery(e *repository.Entry, q *Criterion) bool {
	values := append([]string{e.Package.Identifier, e.Package.Name, e.Package.Publisher}, e.Package.Tags...)
	return match.MatchesAny(values, q.Keyword, q.MatchType)
}

func matchesAnyInclusion(e *repository.Entry, inclusions []Criterion) bool {
	for _, c := range inclusions {
		if match.MatchesAny(c.Field.Values(e), c.Keyword, c.MatchType) {
			return true
		}
	}
	return false
}

// passesFilters requires every filter to match. A filter without a keyword never matches.
func passesFilters(e *repository.Entry, filters []Criterion) bool {
	for _, c := range filters {
		if !match.MatchesAny(c.Field.Values(e), c.Keyword, c.MatchType) {
			return false
		}
	}
	return true
}

func summarize(e *repository.Entry) (Summary, bool) {
	versions := e.Versions()
	if len(versions) == 0 {
		return Summary{}, false
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))

	s := Summary{
		PackageIdentifier: e.Package.Identifier,
		PackageName:       e.Package.Name,
		Publisher:         e.Package.Publisher,
	}
	for _, v := range versions {
		codes := []string{}
		for _, inst := range e.Installers {
			if inst.Version == v && inst.ProductCode != "" && !slices.Contains(codes, inst.ProductCode) {
				codes = append(codes, inst.ProductCode)
			}
		}
		slices.Sort(codes)
		s.Versions = append(s.Versions, VersionSummary{PackageVersion: v, ProductCodes: codes})
	}
	return s, true
}
