package tools

import (
	"os"
	"path/filepath"
)

// ResolvePath cleans p and makes it absolute against cwd. An empty cwd means the
// process working directory. Symlinks are evaluated when the path exists.
func ResolvePath(cwd string, p string) (string, error) {
	p = CleanPath(p)
	var abs string
	if filepath.IsAbs(p) {
		abs = filepath.Clean(p)
	} else {
		if cwd == "" {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			cwd = wd
		}
		v, err := filepath.Abs(filepath.Join(cwd, p))
		if err != nil {
			return "", err
		}
		abs = v
	}
	if v, err := filepath.EvalSymlinks(abs); err == nil {
		return v, nil
	}
	return abs, nil
}

// DisplayPath returns abs relative to cwd when it can be expressed that way
func DisplayPath(cwd string, abs string) string {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return abs
		}
		cwd = wd
	}
	if v, err := filepath.EvalSymlinks(cwd); err == nil {
		cwd = v
	}
	if rel, err := filepath.Rel(cwd, abs); err == nil {
		return rel
	}
	return abs
}

// Exists reports whether p exists
func Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
