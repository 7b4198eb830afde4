// Package cloud submits a script and its directory to a remote job server
// and streams the job's output back to the console.
package cloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"paramit/internal/logging"
)

// DefaultServerURL is the job endpoint used when none is configured.
const DefaultServerURL = "http://127.0.0.1:8000/job"

type jobRequest struct {
	CodeDir    map[string]interface{} `json:"code_dir"`
	ScriptPath string                 `json:"script_path"`
	CLIArgs    []string               `json:"cli_args"`
}

// Submit uploads the script's directory (base64-encoded, keyed by relative
// path) to the job server and copies the streamed response to stdout.
func Submit(ctx context.Context, serverURL, scriptPath string, cliArgs []string) error {
	dir := filepath.Dir(scriptPath)
	codeDir, err := loadDirectory(dir)
	if err != nil {
		return err
	}

	body, err := json.Marshal(jobRequest{
		CodeDir:    codeDir,
		ScriptPath: scriptPath,
		CLIArgs:    cliArgs,
	})
	if err != nil {
		return fmt.Errorf("failed to encode job request: %w", err)
	}

	fmt.Printf("Running on the cloud at %s\n", serverURL)
	logging.Get(logging.CategoryCloud).Info("submitting %s to %s", scriptPath, serverURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach job server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("job server returned %s", resp.Status)
	}
	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		return fmt.Errorf("failed while streaming job output: %w", err)
	}
	return nil
}

// loadDirectory builds a nested map mirroring the directory tree:
// subdirectories become nested maps, files become base64 strings. Keys
// are paths relative to the root, matching the job server's contract.
func loadDirectory(root string) (map[string]interface{}, error) {
	type frame struct {
		node map[string]interface{}
		dir  string
	}

	top := make(map[string]interface{})
	queue := []frame{{node: top, dir: root}}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(f.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.dir, err)
		}
		relDir, err := filepath.Rel(root, f.dir)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			fullPath := filepath.Join(f.dir, entry.Name())
			relPath := filepath.ToSlash(filepath.Join(relDir, entry.Name()))
			if entry.IsDir() {
				child := make(map[string]interface{})
				f.node[relPath] = child
				queue = append(queue, frame{node: child, dir: fullPath})
				continue
			}
			content, err := os.ReadFile(fullPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", fullPath, err)
			}
			f.node[relPath] = base64.StdEncoding.EncodeToString(content)
		}
	}
	return top, nil
}
