package hooks

import (
	"os"

	"github.com/glorpus-work/wingetmirror/pkg/errors"
)

// LoadScripts reads the script files configured per hook type into executor.
// Empty paths are skipped.
func LoadScripts(executor *TengoExecutor, paths map[HookType]string) error {
	for hookType, path := range paths {
		if path == "" {
			continue
		}
		if !hookType.Valid() {
			return errors.Wrapf(errors.ErrHookLoad, "unsupported hook type %q", hookType)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "read %s: %v", path, err)
		}
		executor.AddScript(hookType, string(content))
	}
	return nil
}

// HookTemplate generates a template for a hook script.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PreImport:
		return `// Pre-import hook
// This script runs before a package is imported from upstream.
// Available variables:
// - packageId: string - identifier of the package being imported
// - mode: string - version mode, "latest" or "all"
// Set err to a non-empty string to abort the import.

// Example: refuse preview builds
/*
text := import("text")
if text.contains(packageId, "Preview") {
    err = "preview packages are not mirrored"
}
*/`

	case PostImport:
		return `// Post-import hook
// This script runs after a package import finished.
// Available variables:
// - packageId: string - identifier of the imported package
// - mode: string - version mode, "latest" or "all"
// - importedVersions: int - installers downloaded in this run
// - errorCount: int - installers that failed

// Example: report failures
/*
fmt := import("fmt")
if errorCount > 0 {
    fmt.println(packageId, "had", errorCount, "failed installers")
}
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
