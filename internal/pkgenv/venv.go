package pkgenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"paramit/internal/logging"
)

// Env is an opaque handle to a resolved virtual environment.
type Env struct {
	VenvPath string
}

// Python returns the environment's python executable path.
func (e Env) Python() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.VenvPath, "Scripts", "python")
	}
	return filepath.Join(e.VenvPath, "bin", "python")
}

// Pip returns the environment's pip executable path.
func (e Env) Pip() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.VenvPath, "Scripts", "pip")
	}
	return filepath.Join(e.VenvPath, "bin", "pip")
}

// Resolve returns a virtualenv for the package descriptor, reusing a
// cached one when the descriptor's normalized hash is already known.
func Resolve(ctx context.Context, cache *Cache, packageFile string) (Env, error) {
	hash, err := HashPackageFile(packageFile)
	if err != nil {
		return Env{}, err
	}

	if env, ok, err := cache.Lookup(hash); err != nil {
		return Env{}, err
	} else if ok {
		logging.EnvDebug("reusing environment %s for %s", env.VenvPath, packageFile)
		return env, nil
	}

	env, err := CreateEnv(ctx, packageFile)
	if err != nil {
		return Env{}, err
	}
	if err := cache.Store(hash, env); err != nil {
		return Env{}, err
	}
	return env, nil
}

// CreateEnv creates a fresh virtualenv under the user cache directory and
// installs the descriptor's dependencies into it. Install output streams
// to the console so long installs are visibly alive.
func CreateEnv(ctx context.Context, packageFile string) (Env, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return Env{}, fmt.Errorf("failed to locate user cache dir: %w", err)
	}
	venvPath := filepath.Join(cacheDir, "paramit", uuid.NewString(), ".venv")
	if err := os.MkdirAll(venvPath, 0755); err != nil {
		return Env{}, fmt.Errorf("failed to create venv directory: %w", err)
	}

	fmt.Printf("Creating virtual environment at %s\n", venvPath)
	env := Env{VenvPath: venvPath}

	if err := run(ctx, "python", "-m", "venv", venvPath); err != nil {
		return Env{}, fmt.Errorf("failed to create virtual environment at %s: %w", venvPath, err)
	}
	if err := run(ctx, env.Python(), "-m", "ensurepip"); err != nil {
		return Env{}, fmt.Errorf("failed to install pip in %s: %w", venvPath, err)
	}

	switch filepath.Base(packageFile) {
	case "requirements.txt":
		err = run(ctx, env.Pip(), "install", "-r", packageFile)
	case "pyproject.toml":
		err = run(ctx, env.Pip(), "install", "-e", filepath.Dir(packageFile))
	default:
		return Env{}, fmt.Errorf("unsupported package file %s", packageFile)
	}
	if err != nil {
		return Env{}, fmt.Errorf("failed to install packages from %s: %w", packageFile, err)
	}

	fmt.Printf("Installed packages from %s in the virtual environment\n", packageFile)
	logging.Get(logging.CategoryEnv).Info("created environment %s from %s", venvPath, packageFile)
	return env, nil
}

func run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
