package pyenv

import (
	"os"
	"path/filepath"
)

// ResolveEntryPoint locates a server's main module under sourceDir.
// `main.py` directly in sourceDir is preferred; `src/main.py` is accepted
// as a fallback, in which case moduleDir is the src directory that must be
// prepended to the child's PYTHONPATH. ok is false when neither exists.
func ResolveEntryPoint(sourceDir string) (entryPoint, moduleDir string, ok bool) {
	direct := filepath.Join(sourceDir, "main.py")
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, "", true
	}

	nested := filepath.Join(sourceDir, "src", "main.py")
	if info, err := os.Stat(nested); err == nil && !info.IsDir() {
		return nested, filepath.Join(sourceDir, "src"), true
	}

	return "", "", false
}
