// Package hooks runs user supplied Tengo scripts around package imports.
package hooks

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreImport  HookType = "pre-import"
	PostImport HookType = "post-import"
)

// Types lists every supported hook type.
var Types = []HookType{PreImport, PostImport}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// HookContext contains information passed to hooks.
type HookContext struct {
	PackageID        string
	Mode             string
	ImportedVersions int
	ErrorCount       int
	Vars             map[string]interface{}
}
