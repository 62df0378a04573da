// Package version orders the opaque version strings used upstream and selects which
// installers an import keeps.
//
// Ordering is not SemVer: a version splits on '.' and '-', numeric segments compare as
// integers and sort before non-numeric segments at the same position.
package version

import (
	"cmp"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	goversion "github.com/hashicorp/go-version"
)

// Segment is one element of a version key.
type Segment struct {
	Numeric bool
	Value   string
}

// Key is the orderable form of a version string.
type Key []Segment

// ParseKey splits v into its key.
func ParseKey(v string) Key {
	parts := strings.Split(strings.ReplaceAll(v, "-", "."), ".")
	key := make(Key, 0, len(parts))
	for _, p := range parts {
		if isDigits(p) {
			key = append(key, Segment{Numeric: true, Value: trimZeros(p)})
		} else {
			key = append(key, Segment{Value: p})
		}
	}
	return key
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}

func compareSegment(a, b Segment) int {
	switch {
	case a.Numeric && !b.Numeric:
		return -1
	case !a.Numeric && b.Numeric:
		return 1
	case a.Numeric:
		// Arbitrary length integers without leading zeros.
		if c := cmp.Compare(len(a.Value), len(b.Value)); c != 0 {
			return c
		}
	}
	return strings.Compare(a.Value, b.Value)
}

// Compare orders two keys segment by segment. A key that is a prefix of another sorts first.
func (k Key) Compare(o Key) int {
	for i := 0; i < len(k) && i < len(o); i++ {
		if c := compareSegment(k[i], o[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(k), len(o))
}

// Compare orders two version strings.
func Compare(a, b string) int {
	return ParseKey(a).Compare(ParseKey(b))
}

// Max returns the highest version of vs, or "" for an empty slice.
func Max(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return slices.MaxFunc(vs, Compare)
}

// SortDescending sorts vs highest first. Equal keys keep their order.
func SortDescending(vs []string) {
	slices.SortStableFunc(vs, func(a, b string) int { return Compare(b, a) })
}

// MatchesGlob reports whether v matches the shell glob pattern. An empty pattern matches
// everything; an invalid pattern matches nothing.
func MatchesGlob(v, pattern string) bool {
	if pattern == "" {
		return true
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return false
	}
	return g.Match(v)
}

// MatchesConstraint reports whether v satisfies a constraint such as ">= 1.2, < 2".
// An empty constraint matches everything. Versions that do not parse never match.
func MatchesConstraint(v, constraint string) bool {
	if constraint == "" {
		return true
	}
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return false
	}
	parsed, err := goversion.NewVersion(v)
	if err != nil {
		return false
	}
	return c.Check(parsed)
}

// ValidConstraint reports a parse error for a non-empty constraint.
func ValidConstraint(constraint string) error {
	if constraint == "" {
		return nil
	}
	_, err := goversion.NewConstraint(constraint)
	return err
}

// ValidGlob reports a compile error for a non-empty glob pattern.
func ValidGlob(pattern string) error {
	if pattern == "" {
		return nil
	}
	_, err := glob.Compile(pattern)
	return err
}
