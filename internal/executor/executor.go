// Package executor owns the per-experiment lifecycle: a report directory,
// its artifacts (config, rewritten script, package file, console log), and
// the blocking execution of the rewritten script inside a virtualenv.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"paramit/internal/logging"
	"paramit/internal/pkgenv"
)

// LogFileName is the combined-output artifact written in each run dir.
const LogFileName = "console.log"

// Run is one experiment's working directory.
type Run struct {
	ID  string
	Dir string
}

// NewRun creates a fresh experiment directory under reportsRoot, named by
// timestamp plus a short unique suffix so concurrent sweeps never collide.
func NewRun(reportsRoot string) (*Run, error) {
	id := time.Now().Format("2006-01-02-15-04-05") + "-" + uuid.NewString()[:8]
	dir := filepath.Join(reportsRoot, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create experiment directory: %w", err)
	}
	logging.ExecDebug("created experiment directory %s", dir)
	return &Run{ID: id, Dir: dir}, nil
}

// WriteArtifact writes a named file into the run directory.
func (r *Run) WriteArtifact(name string, data []byte) error {
	path := filepath.Join(r.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// CopyFile copies an external file (the package descriptor) into the run
// directory under its base name.
func (r *Run) CopyFile(src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	return r.WriteArtifact(filepath.Base(src), data)
}

// Execute writes source to a temp file and runs it with the environment's
// python, cwd set to the run directory. Combined stdout/stderr is teed to
// the console and to console.log as it is produced. Blocking; one
// invocation per experiment.
func Execute(ctx context.Context, source []byte, env pkgenv.Env, r *Run) error {
	tmp, err := os.CreateTemp("", "paramit-*.py")
	if err != nil {
		return fmt.Errorf("failed to create temp script: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(source); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp script: %w", err)
	}

	logFile, err := os.Create(filepath.Join(r.Dir, LogFileName))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", LogFileName, err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, env.Python(), "-u", tmpPath)
	cmd.Dir = r.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	sink := &lockedWriter{w: io.MultiWriter(os.Stdout, logFile)}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start experiment: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error { _, err := io.Copy(sink, stdout); return err })
	g.Go(func() error { _, err := io.Copy(sink, stderr); return err })

	copyErr := g.Wait()
	waitErr := cmd.Wait()

	logging.ExecDebug("experiment %s finished (copy=%v wait=%v)", r.ID, copyErr, waitErr)
	if waitErr != nil {
		return fmt.Errorf("experiment failed: %w", waitErr)
	}
	return copyErr
}

// lockedWriter serializes writes from the stdout and stderr pumps so
// lines are never torn across the two streams.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
