package orchestrator

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// ProjectFile marks the root of a tsd-managed project.
const ProjectFile = "tsd.json"

// ResolveDir picks the directory tsd runs in: explicit if given, else the
// nearest ancestor of cwd holding tsd.json, else cwd, else home.
func ResolveDir(fs afero.Fs, explicit, cwd, home string) string {
	if explicit != "" {
		if abs, err := filepath.Abs(explicit); err == nil {
			return abs
		}
		return explicit
	}

	if cwd != "" {
		for dir := filepath.Clean(cwd); ; dir = filepath.Dir(dir) {
			if ok, _ := afero.Exists(fs, filepath.Join(dir, ProjectFile)); ok {
				return dir
			}

			if parent := filepath.Dir(dir); parent == dir {
				break
			}
		}

		return cwd
	}

	if home != "" {
		return home
	}

	return string(filepath.Separator)
}
