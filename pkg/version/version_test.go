package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "numeric not lexicographic", a: "1.9.0", b: "1.10.0", want: -1},
		{name: "equal", a: "2.45.1", b: "2.45.1", want: 0},
		{name: "leading zeros are numeric", a: "1.010", b: "1.9", want: 1},
		{name: "prefix sorts first", a: "1.0", b: "1.0.1", want: -1},
		{name: "number before string", a: "1.0.1", b: "1.0.beta", want: -1},
		{name: "dash splits segments", a: "1.0-beta", b: "1.0.0", want: 1},
		{name: "strings compare lexically", a: "1.0-alpha", b: "1.0-beta", want: -1},
		{name: "big numbers", a: "20240101123456789012", b: "20240101123456789011", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestSortDescendingAndMax(t *testing.T) {
	vs := []string{"1.9.0", "1.10.0", "1.2", "1.10.0-beta"}
	SortDescending(vs)
	assert.Equal(t, []string{"1.10.0-beta", "1.10.0", "1.9.0", "1.2"}, vs)
	assert.Equal(t, "1.10.0-beta", Max(vs))
	assert.Equal(t, "", Max(nil))
}

type cand struct {
	v, arch, scope, typ string
}

func (c cand) VersionString() string                 { return c.v }
func (c cand) GroupFields() (string, string, string) { return c.arch, c.scope, c.typ }

func TestSelectLatestPerGroup(t *testing.T) {
	tests := []struct {
		name       string
		candidates []cand
		typeFilter []string
		want       []cand
	}{
		{
			name: "one per architecture",
			candidates: []cand{
				{"1.0", "x64", "user", "exe"},
				{"2.0", "x64", "user", "exe"},
				{"1.5", "x86", "user", "exe"},
			},
			want: []cand{{"2.0", "x64", "user", "exe"}, {"1.5", "x86", "user", "exe"}},
		},
		{
			name: "missing fields share the default group",
			candidates: []cand{
				{"1.0", "", "", ""},
				{"1.1", "X64", "User", "EXE"},
			},
			want: []cand{{"1.1", "X64", "User", "EXE"}},
		},
		{
			name: "type filter drops before grouping",
			candidates: []cand{
				{"3.0", "x64", "user", "exe"},
				{"2.0", "x64", "user", "msi"},
			},
			typeFilter: []string{"MSI"},
			want:       []cand{{"2.0", "x64", "user", "msi"}},
		},
		{
			name: "numeric ordering inside group",
			candidates: []cand{
				{"1.10.0", "arm64", "machine", "msix"},
				{"1.9.0", "arm64", "machine", "msix"},
			},
			want: []cand{{"1.10.0", "arm64", "machine", "msix"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectLatestPerGroup(tt.candidates, tt.typeFilter))
		})
	}
}

func TestMatchesGlob(t *testing.T) {
	tests := []struct {
		version, pattern string
		want             bool
	}{
		{"2.45.1", "", true},
		{"2.45.1", "2.*", true},
		{"2.45.1", "3.*", false},
		{"2.45.1", "2.4?.1", true},
		{"2.45.1", "[", false},
	}

	for _, tt := range tests {
		t.Run(tt.version+" "+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesGlob(tt.version, tt.pattern))
		})
	}
}

func TestMatchesConstraint(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		constraint string
		want       bool
	}{
		{name: "empty constraint", version: "anything", constraint: "", want: true},
		{name: "satisfied range", version: "1.5.0", constraint: ">= 1.2, < 2", want: true},
		{name: "outside range", version: "2.0.0", constraint: ">= 1.2, < 2", want: false},
		{name: "unparseable version", version: "latest", constraint: ">= 1.0", want: false},
		{name: "invalid constraint", version: "1.0.0", constraint: ">>> 1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesConstraint(tt.version, tt.constraint))
		})
	}
}

func TestValidators(t *testing.T) {
	require.NoError(t, ValidConstraint(""))
	require.NoError(t, ValidConstraint(">= 1.0"))
	require.Error(t, ValidConstraint("nope"))
	require.NoError(t, ValidGlob("1.*"))
	require.Error(t, ValidGlob("["))
}
