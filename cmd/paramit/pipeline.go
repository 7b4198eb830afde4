package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"paramit/internal/cloud"
	"paramit/internal/config"
	"paramit/internal/executor"
	"paramit/internal/extract"
	"paramit/internal/inject"
	"paramit/internal/logging"
	"paramit/internal/notebook"
	"paramit/internal/pkgenv"
	"paramit/internal/pyast"
	"paramit/internal/sweep"
)

type mode int

const (
	modeRun mode = iota
	modeNotebook
	modeCloud
)

// reportsRoot is where experiment directories are created, relative to
// the invocation directory.
const reportsRoot = "reports"

var allowedExtensions = map[mode][]string{
	modeRun:      {".py", ".toml"},
	modeNotebook: {".ipynb", ".toml"},
	modeCloud:    {".py", ".ipynb"},
}

// executePipeline is the shared entry for all three modes. args arrive
// unparsed (flag parsing is disabled): the first token is the target
// path, the rest are override tokens, possibly with -h/--help mixed in.
func executePipeline(cmd *cobra.Command, m mode, args []string) error {
	path, overrides, helpRequested := splitArgs(args)
	if path == "" {
		if helpRequested {
			return cmd.Help()
		}
		_ = cmd.Help()
		return fmt.Errorf("missing path argument")
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist", path)
	}
	ext := filepath.Ext(path)
	if !contains(allowedExtensions[m], ext) {
		return fmt.Errorf("file %s is not supported by this mode (expected %s)",
			path, strings.Join(allowedExtensions[m], " or "))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if m == modeCloud {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		return cloud.Submit(ctx, serverURL(), abs, overrides)
	}

	// Resolve script and config paths. A .toml target names the script
	// through its metadata; a script target names its config by extension.
	var scriptPath, configPath string
	var cfg *config.Configuration
	if ext == ".toml" {
		configPath = path
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(configPath); err != nil {
			return err
		}
		cfg = loaded
		scriptPath = cfg.Meta.ScriptPath
	} else {
		scriptPath = path
		configPath = strings.TrimSuffix(path, ext) + ".toml"
	}

	if err := logging.Initialize(filepath.Dir(scriptPath)); err != nil {
		return err
	}
	logger.Debug("pipeline start",
		zap.String("script", scriptPath), zap.String("config", configPath))

	source, err := readScript(scriptPath)
	if err != nil {
		return err
	}

	parser := pyast.NewParser()
	defer parser.Close()
	tree, err := parser.Parse(scriptPath, source)
	if err != nil {
		return err
	}
	defer tree.Close()

	// A .toml target arrives with cfg already loaded; a script target gets
	// its config generated (or kept) and loaded here.
	if ext != ".toml" {
		done, err := ensureConfig(tree, scriptPath, configPath)
		if err != nil || done {
			return err
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(configPath); err != nil {
			return err
		}
	}

	params, err := sweep.ParseArgs(overrides)
	if err != nil {
		return err
	}

	if helpRequested {
		printConfigHelp(cfg, scriptPath)
		return nil
	}

	experiments, err := sweep.Expand(cfg, params)
	if err != nil {
		return err
	}

	if !sweepGate(len(experiments), confirm) {
		return nil
	}

	env, err := resolveEnv(ctx, cfg.Meta.PackagePath)
	if err != nil {
		return err
	}

	return runExperiments(ctx, m, tree, experiments, env, cfg.Meta.PackagePath, scriptPath)
}

// ensureConfig generates the config file on first contact with a script,
// or offers to regenerate when one already exists. Returns done=true when
// the run should stop here (no package descriptor could be found, so the
// user has to fill in package_path by hand first).
func ensureConfig(tree *pyast.Tree, scriptPath, configPath string) (done bool, err error) {
	_, statErr := os.Stat(configPath)
	exists := statErr == nil

	if exists {
		warnf("Warning: Configuration file %s already exists", configPath)
		if !confirm("Do you want to overwrite it") {
			return false, nil
		}
	}

	vars := extract.Variables(tree)
	vars = extract.NormalizePaths(vars, scriptPath)

	absScript, err := filepath.Abs(scriptPath)
	if err != nil {
		return false, err
	}
	packageFile := pkgenv.FindPackageFile(filepath.Dir(absScript))
	if packageFile == "" {
		warnf("Warning: No package file found, set the package_path manually in the config file")
	}

	cfg := config.New(vars, config.Metadata{
		Version:     config.Version,
		CreatedOn:   time.Now().Format(time.RFC3339),
		ScriptPath:  absScript,
		PackagePath: packageFile,
	})
	if err := cfg.Save(configPath); err != nil {
		return false, err
	}
	fmt.Printf("Configuration file generated at %s\n", configPath)

	return packageFile == "", nil
}

// runExperiments executes each configuration in order. A failing
// experiment is reported and the sweep continues; later experiments are
// independent of earlier ones.
func runExperiments(
	ctx context.Context,
	m mode,
	tree *pyast.Tree,
	experiments []*config.Configuration,
	env pkgenv.Env,
	packageFile, scriptPath string,
) error {
	baseName := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))

	for _, expCfg := range experiments {
		run, err := executor.NewRun(reportsRoot)
		if err != nil {
			return err
		}

		if err := expCfg.Save(filepath.Join(run.Dir, baseName+".toml")); err != nil {
			return err
		}

		rewritten, err := inject.Rewrite(tree, expCfg.TopLevelScalars())
		if err != nil {
			return err // a kind-changing rewrite is fatal, never recoverable
		}
		if err := run.WriteArtifact(baseName+".py", rewritten); err != nil {
			return err
		}
		if m == modeNotebook {
			nb, err := notebook.FromSource(string(rewritten))
			if err != nil {
				return err
			}
			if err := run.WriteArtifact(baseName+".ipynb", nb); err != nil {
				return err
			}
		}
		if err := run.CopyFile(packageFile); err != nil {
			return err
		}

		logger.Info("running experiment", zap.String("id", run.ID))
		if err := executor.Execute(ctx, rewritten, env, run); err != nil {
			warnf("Warning: experiment %s failed: %v", run.ID, err)
		}
	}
	return nil
}

// resolveEnv opens the per-user environment cache and resolves (or
// creates) the virtualenv for the package descriptor.
func resolveEnv(ctx context.Context, packageFile string) (pkgenv.Env, error) {
	if packageFile == "" {
		return pkgenv.Env{}, fmt.Errorf("config has no package_path; set it manually in the config file")
	}
	if _, err := os.Stat(packageFile); err != nil {
		return pkgenv.Env{}, fmt.Errorf("package file %s does not exist", packageFile)
	}

	cachePath, err := pkgenv.DefaultCachePath()
	if err != nil {
		return pkgenv.Env{}, err
	}
	cache, err := pkgenv.OpenCache(cachePath)
	if err != nil {
		return pkgenv.Env{}, err
	}
	defer cache.Close()

	return pkgenv.Resolve(ctx, cache, packageFile)
}

// readScript loads linear Python source, converting notebooks at the
// boundary.
func readScript(scriptPath string) ([]byte, error) {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", scriptPath, err)
	}
	if filepath.Ext(scriptPath) == ".ipynb" {
		src, err := notebook.ToSource(data)
		if err != nil {
			return nil, err
		}
		return []byte(src), nil
	}
	return data, nil
}

// splitArgs separates the path token from override tokens and strips any
// help request.
func splitArgs(args []string) (path string, overrides []string, help bool) {
	for _, a := range args {
		switch {
		case a == "-h" || a == "--help":
			help = true
		case path == "" && !strings.HasPrefix(a, "-"):
			path = a
		default:
			overrides = append(overrides, a)
		}
	}
	return path, overrides, help
}

// sweepGate reports whether a sweep of n experiments should proceed.
// Zero experiments never run; counts above the threshold need the user's
// confirmation before anything is written or executed.
func sweepGate(n int, confirmFn func(label string) bool) bool {
	switch {
	case n == 0:
		warnf("Warning: No experiments to run")
		return false
	case n > sweep.ConfirmThreshold:
		warnf("Warning: Running %d experiments", n)
		return confirmFn("Do you want to continue")
	case n > 1:
		warnf("Running %d experiments", n)
	}
	return true
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

func serverURL() string {
	if url := os.Getenv("PARAMIT_SERVER_URL"); url != "" {
		return url
	}
	return cloud.DefaultServerURL
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
