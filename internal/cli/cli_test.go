package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lumiere/internal/config"
	"github.com/teslashibe/go-lumiere/pkg/lumiere"
)

var envKeys = []string{
	config.EnvPackageName, config.EnvPlatformKey, config.EnvOpenAIKey,
	config.EnvWorkflowURL, config.EnvWorkflowKey, config.EnvRunwaySecret,
	config.EnvRunwayKey, config.EnvRunwayBaseURL, config.EnvLogLevel,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeRunway serves one job that succeeds on the second poll.
func fakeRunway(t *testing.T) (*httptest.Server, *map[string]any) {
	t.Helper()

	var (
		polls     atomic.Int32
		submitted = map[string]any{}
	)
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("POST /v1/image_to_video", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer cli-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&submitted)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-cli"})
	})
	mux.HandleFunc("GET /v1/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			_ = json.NewEncoder(w).Encode(map[string]any{"id": r.PathValue("id"), "status": "RUNNING"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     r.PathValue("id"),
			"status": "SUCCEEDED",
			"output": []string{srv.URL + "/assets/video.mp4"},
		})
	})
	mux.HandleFunc("GET /assets/video.mp4", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fake-mp4"))
	})
	return srv, &submitted
}

func TestRootHelp(t *testing.T) {
	out, _, err := executeCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "animate")
}

func TestVersionFlag(t *testing.T) {
	out, _, err := executeCLI(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, lumiere.Version)
}

func TestAnimate(t *testing.T) {
	clearEnv(t)
	srv, submitted := fakeRunway(t)
	t.Setenv(config.EnvRunwayKey, "cli-key")
	t.Setenv(config.EnvRunwayBaseURL, srv.URL+"/v1")

	dir := t.TempDir()
	img := filepath.Join(dir, "frame.png")
	require.NoError(t, os.WriteFile(img, []byte("png-bytes"), 0o600))
	out := filepath.Join(dir, "out.mp4")

	stdout, _, err := executeCLI(t, "animate",
		"--image", img,
		"--out", out,
		"--seed", "42",
		"--poll-interval", "5ms",
		"--debug-dir", dir,
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Video saved to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp4", string(data))

	assert.Equal(t, float64(42), (*submitted)["seed"])
	assert.Equal(t, DefaultPrompt, (*submitted)["promptText"])
	assert.True(t, strings.HasPrefix((*submitted)["promptImage"].(string), "data:image/png;base64,"))

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "diagnostic files are written")
}

func TestAnimateNoDebugFiles(t *testing.T) {
	clearEnv(t)
	srv, _ := fakeRunway(t)
	t.Setenv(config.EnvRunwaySecret, "cli-key")
	t.Setenv(config.EnvRunwayBaseURL, srv.URL+"/v1")

	dir := t.TempDir()
	img := filepath.Join(dir, "frame.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpg-bytes"), 0o600))

	_, _, err := executeCLI(t, "animate",
		"--image", img,
		"--out", filepath.Join(dir, "out.mp4"),
		"--poll-interval", "5ms",
		"--debug-dir", dir,
		"--no-debug-files",
		"--log-level", "error",
	)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAnimateMissingKey(t *testing.T) {
	clearEnv(t)

	_, stderr, err := executeCLI(t, "animate")
	var cerr *lumiere.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, stderr, config.EnvRunwaySecret)
}

func TestAnimateMissingImage(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvRunwayKey, "cli-key")

	_, _, err := executeCLI(t, "animate", "--image", filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
}

func TestServeMissingConfig(t *testing.T) {
	clearEnv(t)

	_, _, err := executeCLI(t, "serve")
	var cerr *lumiere.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, config.EnvPackageName)
}

func TestServeRejectsArgs(t *testing.T) {
	_, _, err := executeCLI(t, "serve", "extra")
	require.Error(t, err)
}
