// Package pkgenv resolves the dependency environment for a target script:
// it locates the package descriptor (requirements.txt or pyproject.toml),
// hashes it order-independently, and maps the hash to a cached virtualenv
// so identical dependency sets share one environment.
package pkgenv

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"paramit/internal/logging"
)

// packageFileNames in discovery priority order.
var packageFileNames = []string{"requirements.txt", "pyproject.toml"}

// FindPackageFile searches dir for a package descriptor, then walks parent
// directories up to the enclosing repository root (the first directory
// containing .git). Returns "" when nothing is found.
func FindPackageFile(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	if p := packageFileIn(dir); p != "" {
		return p
	}

	root := repoRoot(dir)
	if root == "" {
		return ""
	}
	for dir != root {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		if p := packageFileIn(dir); p != "" {
			return p
		}
	}
	return ""
}

func packageFileIn(dir string) string {
	for _, name := range packageFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			logging.EnvDebug("found package file %s", p)
			return p
		}
	}
	return ""
}

// repoRoot returns the nearest ancestor of dir (inclusive) containing a
// .git entry, or "" when dir is not inside a repository.
func repoRoot(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// HashPackageFile computes a content hash of the descriptor that is
// independent of line order: lines are trimmed, empties dropped, the
// remainder sorted and joined before hashing. Two descriptors listing the
// same dependencies in different orders share an environment.
func HashPackageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read package file: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:]), nil
}
