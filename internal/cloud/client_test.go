package cloud

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T) (dir, script string) {
	t.Helper()
	dir = t.TempDir()
	script = filepath.Join(dir, "train.py")
	require.NoError(t, os.WriteFile(script, []byte("lr = 0.1\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "train.csv"), []byte("1,2\n"), 0644))
	return dir, script
}

func TestLoadDirectory(t *testing.T) {
	_, script := writeTree(t)

	tree, err := loadDirectory(filepath.Dir(script))
	require.NoError(t, err)

	encoded, ok := tree["train.py"].(string)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "lr = 0.1\n", string(decoded))

	sub, ok := tree["data"].(map[string]interface{})
	require.True(t, ok, "subdirectories become nested maps")
	assert.Contains(t, sub, "data/train.csv")
}

func TestSubmit(t *testing.T) {
	_, script := writeTree(t)

	var got jobRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		io.WriteString(w, "job accepted\n")
	}))
	defer srv.Close()

	err := Submit(context.Background(), srv.URL, script, []string{"--lr=0.01"})
	require.NoError(t, err)

	assert.Equal(t, script, got.ScriptPath)
	assert.Equal(t, []string{"--lr=0.01"}, got.CLIArgs)
	assert.Contains(t, got.CodeDir, "train.py")
}

func TestSubmitServerError(t *testing.T) {
	_, script := writeTree(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Submit(context.Background(), srv.URL, script, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSubmitUnreachableServer(t *testing.T) {
	_, script := writeTree(t)

	err := Submit(context.Background(), "http://127.0.0.1:1/job", script, nil)
	assert.Error(t, err)
}
