package extract

import (
	"os"
	"path/filepath"

	"paramit/internal/config"
	"paramit/internal/logging"
)

// NormalizePaths rewrites string-valued variables to absolute paths when
// they resolve, relative to the script's directory, to something that
// exists on disk. Everything else passes through unchanged, so ordinary
// strings are never disturbed.
func NormalizePaths(vars []config.Variable, scriptPath string) []config.Variable {
	scriptDir := filepath.Dir(scriptPath)
	out := make([]config.Variable, 0, len(vars))

	for _, v := range vars {
		if v.Value.Kind() != config.KindString || v.Value.Str() == "" {
			out = append(out, v)
			continue
		}

		candidate := v.Value.Str()
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(scriptDir, candidate)
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			out = append(out, v)
			continue
		}

		if _, statErr := os.Stat(abs); statErr == nil {
			logging.ExtractDebug("normalized %s: %q -> %q", v.QualifiedName, v.Value.Str(), abs)
			v.Value = config.StringValue(abs)
		}
		out = append(out, v)
	}
	return out
}
