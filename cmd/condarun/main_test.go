package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/config"
	"github.com/dmora/condarun/transporttest"
)

const infoDoc = `{"default_prefix":"/opt/conda","root_prefix":"/opt/conda","envs":["/opt/conda/envs/web"]}`

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// runCLI executes the command tree against f and returns stdout and stderr.
func runCLI(t *testing.T, f *transporttest.Fake, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	if f != nil {
		a.newTransport = func(config.Config, *slog.Logger) (condarun.Transport, error) { return f, nil }
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(testCtx(t))
	return stdout.String(), stderr.String(), err
}

func lastOptions(t *testing.T, f *transporttest.Fake) map[string]any {
	t.Helper()
	cmd, ok := f.Last()
	require.True(t, ok)
	out := make(map[string]any)
	opts := cmd.Options()
	for _, k := range opts.Keys() {
		v, _ := opts.Get(k)
		out[k] = v
	}
	return out
}

func TestInfo(t *testing.T) {
	f := transporttest.NewFake().Reply("info", transporttest.JSON(infoDoc))
	stdout, _, err := runCLI(t, f, "info")
	require.NoError(t, err)
	assert.JSONEq(t, infoDoc, stdout)
	assert.True(t, strings.HasSuffix(stdout, "\n"))
	assert.Contains(t, stdout, "\n  \"default_prefix\"")
}

func TestInstall_NamedEnvWithProgress(t *testing.T) {
	f := transporttest.NewFake().
		Reply("info", transporttest.JSON(infoDoc)).
		Reply("install", transporttest.Reply{
			Progress: []json.RawMessage{
				json.RawMessage(`{"fetch":"numpy","progress":0.5}`),
				json.RawMessage(`{"fetch":"numpy","finished":true}`),
			},
			Result: json.RawMessage(`{"success":true}`),
		})

	stdout, stderr, err := runCLI(t, f, "install", "--name", "web", "--progress", "numpy", "scipy")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, stdout)
	assert.Contains(t, stderr, `progress {"fetch":"numpy","progress":0.5}`)
	assert.Contains(t, stderr, `progress {"fetch":"numpy","finished":true}`)

	cmd, _ := f.Last()
	assert.Equal(t, "install", cmd.Name())
	assert.Equal(t, []string{"numpy", "scipy"}, cmd.Positional())
	assert.Equal(t, map[string]any{"quiet": false, "prefix": "/opt/conda/envs/web"}, lastOptions(t, f))
}

func TestInstall_PrefixSkipsLookup(t *testing.T) {
	f := transporttest.NewFake().Reply("install", transporttest.JSON(`{"success":true}`))
	_, _, err := runCLI(t, f, "install", "--prefix", "/data/envs/x", "numpy")
	require.NoError(t, err)
	assert.Len(t, f.Calls(), 1)
	assert.Equal(t, map[string]any{"quiet": true, "prefix": "/data/envs/x"}, lastOptions(t, f))
}

func TestInstall_NameAndPrefixConflict(t *testing.T) {
	_, _, err := runCLI(t, transporttest.NewFake(), "install", "--name", "a", "--prefix", "/b", "numpy")
	assert.Error(t, err)
}

func TestUpdate_All(t *testing.T) {
	f := transporttest.NewFake().Reply("update", transporttest.JSON(`{"success":true}`))
	_, _, err := runCLI(t, f, "update", "--prefix", "/data/envs/x", "--all", "--dry-run")
	require.NoError(t, err)
	opts := lastOptions(t, f)
	assert.Equal(t, true, opts["all"])
	assert.Equal(t, true, opts["dryRun"])
}

func TestRemove_AllRemovesEnv(t *testing.T) {
	f := transporttest.NewFake().Reply("remove", transporttest.JSON(`{"success":true}`))
	_, _, err := runCLI(t, f, "remove", "--prefix", "/data/envs/x", "--all")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"all": true, "prefix": "/data/envs/x", "quiet": true}, lastOptions(t, f))

	_, _, err = runCLI(t, f, "remove", "--prefix", "/data/envs/x", "--all", "numpy")
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	f := transporttest.NewFake().Reply("create", transporttest.JSON(
		`{"success":true,"actions":{"PREFIX":"/opt/conda/envs/api"}}`))
	stdout, _, err := runCLI(t, f, "create", "--name", "api", "python=3.12")
	require.NoError(t, err)
	assert.Contains(t, stdout, "/opt/conda/envs/api")

	_, _, err = runCLI(t, f, "create", "python")
	assert.ErrorIs(t, err, condarun.ErrValidationFailure)
}

func TestClean_RequiresTarget(t *testing.T) {
	_, _, err := runCLI(t, transporttest.NewFake(), "clean", "--dry-run")
	assert.ErrorIs(t, err, condarun.ErrValidationFailure)
}

func TestSearch(t *testing.T) {
	f := transporttest.NewFake().Reply("search", transporttest.JSON(
		`{"numpy":[{"name":"numpy","version":"1.26.4","build":"py312h_0"}]}`))
	stdout, _, err := runCLI(t, f, "search", "--spec", "numpy>=1.26")
	require.NoError(t, err)

	var index map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &index))
	assert.Equal(t, "1.26.4", index["numpy"][0]["version"])
}

func TestConfig(t *testing.T) {
	f := transporttest.NewFake().Reply("config", transporttest.JSON(`{"get":{"channels":["defaults"]}}`))

	stdout, _, err := runCLI(t, f, "config", "get", "channels", "--system")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":["defaults"],"set":true}`, stdout)
	assert.Equal(t, map[string]any{"get": "channels", "system": true}, lastOptions(t, f))

	_, _, err = runCLI(t, f, "config", "remove", "envs_dirs")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"removeKey": "envs_dirs", "force": true}, lastOptions(t, f))

	_, _, err = runCLI(t, f, "config", "get", "--system", "--file", "/etc/condarc")
	assert.Error(t, err)
}

func TestUnsupportedMode(t *testing.T) {
	_, _, err := runCLI(t, nil, "--mode", "carrier-pigeon", "info")
	assert.ErrorIs(t, err, condarun.ErrUnsupportedConfiguration)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "condarun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: rest\n"), 0o644))

	// rest mode without an API root cannot be built.
	_, _, err := runCLI(t, nil, "--config", path, "info")
	assert.ErrorIs(t, err, condarun.ErrUnsupportedConfiguration)

	_, _, err = runCLI(t, nil, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "info")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrintProgress(t *testing.T) {
	var stderr bytes.Buffer
	a := newApp(&bytes.Buffer{}, &stderr)
	a.printProgress(json.RawMessage(`{"fetch":"numpy"}`))
	assert.Contains(t, stderr.String(), `progress {"fetch":"numpy"}`)
}
