// Package match implements the match types of the package search protocol.
package match

import (
	"strings"

	"github.com/gobwas/glob"
)

// Type is a protocol match type.
type Type string

const (
	Exact           Type = "Exact"
	CaseInsensitive Type = "CaseInsensitive"
	StartsWith      Type = "StartsWith"
	Substring       Type = "Substring"
	Wildcard        Type = "Wildcard"
	Fuzzy           Type = "Fuzzy"
	FuzzySubstring  Type = "FuzzySubstring"
)

// Matches reports whether value matches keyword under the given match type.
// A nil keyword never matches. An empty or unknown type falls back to case-insensitive
// containment. Fuzzy types are treated as containment.
func Matches(value string, keyword *string, matchType Type) bool {
	if keyword == nil {
		return false
	}
	kw := *keyword
	mt := Type(strings.TrimSpace(string(matchType)))
	if mt == "" {
		mt = Substring
	}

	switch mt {
	case Exact:
		return value == kw
	case CaseInsensitive:
		return strings.ToLower(value) == strings.ToLower(kw)
	case StartsWith:
		return strings.HasPrefix(strings.ToLower(value), strings.ToLower(kw))
	case Wildcard:
		return matchWildcard(value, kw)
	default:
		return strings.Contains(strings.ToLower(value), strings.ToLower(kw))
	}
}

// MatchesAny reports whether any of values matches.
func MatchesAny(values []string, keyword *string, matchType Type) bool {
	for _, v := range values {
		if Matches(v, keyword, matchType) {
			return true
		}
	}
	return false
}

// matchWildcard supports only '*' and '?'; everything else is literal.
func matchWildcard(value, pattern string) bool {
	var b strings.Builder
	for _, r := range strings.ToLower(pattern) {
		switch r {
		case '*', '?':
			b.WriteRune(r)
		default:
			b.WriteString(glob.QuoteMeta(string(r)))
		}
	}
	g, err := glob.Compile(b.String())
	if err != nil {
		return false
	}
	return g.Match(strings.ToLower(value))
}
