package remote_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/transport/remote"
)

func body(t *testing.T, r remote.Route) string {
	t.Helper()
	require.NotNil(t, r.Body)
	data, err := json.Marshal(r.Body)
	require.NoError(t, err)
	return string(data)
}

func opts(kv ...any) *condarun.Options {
	o := condarun.NewOptions()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1])
	}
	return o
}

// ---------------------------------------------------------------------------
// Uniform mode
// ---------------------------------------------------------------------------

func TestSelectUniform_ReadOnlyUsesGET(t *testing.T) {
	for _, name := range []string{"info", "list", "search"} {
		r, err := remote.Select(remote.Uniform, condarun.NewCommand(name, opts("prefix", "/envs/a"), "numpy"))
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, r.Method, name)
		assert.Equal(t, "/"+name, r.Path)
		assert.Nil(t, r.Body)
		assert.Equal(t, url.Values{"prefix": {"/envs/a"}, "positional": {"numpy"}}, r.Query)
	}
}

func TestSelectUniform_MutatingUsesPOST(t *testing.T) {
	cmd := condarun.NewCommand("install", opts("prefix", "/envs/a", "quiet", true), "numpy", "scipy")
	r, err := remote.Select(remote.Uniform, cmd)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/install", r.Path)
	assert.Nil(t, r.Query)
	assert.Equal(t, `{"prefix":"/envs/a","quiet":true,"positional":["numpy","scipy"]}`, body(t, r))
}

func TestSelectUniform_EmptyPositionalStillSent(t *testing.T) {
	r, err := remote.Select(remote.Uniform, condarun.NewCommand("clean", opts("lock", true)))
	require.NoError(t, err)
	assert.Equal(t, `{"lock":true,"positional":[]}`, body(t, r))
}

func TestSelectUniform_Config(t *testing.T) {
	get, err := remote.Select(remote.Uniform, condarun.NewCommand("config", opts("get", "channels")))
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, get.Method)

	getAll, err := remote.Select(remote.Uniform, condarun.NewCommand("config", opts("get", true)))
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, getAll.Method)

	add, err := remote.Select(remote.Uniform, condarun.NewCommand("config", opts("add", []string{"channels", "x"}, "force", true)))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, add.Method)
	assert.Equal(t, "/config", add.Path)
}

// ---------------------------------------------------------------------------
// Resource mode
// ---------------------------------------------------------------------------

func TestSelectResource_InstallSinglePackage(t *testing.T) {
	r, err := remote.Select(remote.Resource, condarun.NewCommand("install", opts("name", "web", "quiet", true), "numpy"))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/env/name/web/numpy", r.Path)
	assert.Equal(t, `{"quiet":true}`, body(t, r))
}

func TestSelectResource_InstallTwoPackagesRejected(t *testing.T) {
	_, err := remote.Select(remote.Resource, condarun.NewCommand("install", opts("name", "web"), "numpy", "scipy"))
	require.Error(t, err)
	assert.ErrorIs(t, err, condarun.ErrValidationFailure)
}

func TestSelectResource_PackageOpsNeedOnePackage(t *testing.T) {
	for _, name := range []string{"install", "update", "remove"} {
		_, err := remote.Select(remote.Resource, condarun.NewCommand(name, opts("prefix", "/envs/a")))
		assert.ErrorIs(t, err, condarun.ErrValidationFailure, name)
	}
}

func TestSelectResource_Verbs(t *testing.T) {
	tests := []struct {
		name   string
		cmd    condarun.Command
		method string
		path   string
	}{
		{"install", condarun.NewCommand("install", opts("name", "web"), "numpy"), http.MethodPost, "/env/name/web/numpy"},
		{"update", condarun.NewCommand("update", opts("name", "web"), "numpy"), http.MethodPut, "/env/name/web/numpy"},
		{"remove", condarun.NewCommand("remove", opts("name", "web"), "numpy"), http.MethodDelete, "/env/name/web/numpy"},
		{"create", condarun.NewCommand("create", opts("name", "web"), "python"), http.MethodPost, "/env/name/web"},
		{"list", condarun.NewCommand("list", opts("prefix", "/opt/envs/web")), http.MethodGet, "/env/prefix/%2Fopt%2Fenvs%2Fweb/list"},
		{"info", condarun.NewCommand("info", nil), http.MethodGet, "/info"},
		{"remove_env", condarun.NewCommand("remove", opts("prefix", "/e", "all", true)), http.MethodDelete, "/env/prefix/%2Fe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := remote.Select(remote.Resource, tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.method, r.Method)
			assert.Equal(t, tt.path, r.Path)
		})
	}
}

func TestSelectResource_CreateFoldsPackagesIntoQuery(t *testing.T) {
	r, err := remote.Select(remote.Resource, condarun.NewCommand("create", opts("name", "web"), "python", "numpy"))
	require.NoError(t, err)
	assert.Equal(t, `{"q":["python","numpy"]}`, body(t, r))
}

func TestSelectResource_NameAndPrefix(t *testing.T) {
	_, err := remote.Select(remote.Resource, condarun.NewCommand("list", opts("name", "web", "prefix", "/envs/web")))
	assert.ErrorIs(t, err, condarun.ErrValidationFailure)

	_, err = remote.Select(remote.Resource, condarun.NewCommand("create", opts("quiet", true), "python"))
	assert.ErrorIs(t, err, condarun.ErrValidationFailure)

	// A null or false name does not count as naming an environment.
	r, err := remote.Select(remote.Resource, condarun.NewCommand("list", opts("name", nil, "prefix", "/e")))
	require.NoError(t, err)
	assert.Equal(t, "/env/prefix/%2Fe/list", r.Path)
	assert.NotContains(t, r.Query, "name")
}

func TestSelectResource_Config(t *testing.T) {
	tests := []struct {
		name   string
		opts   *condarun.Options
		method string
		path   string
		body   string
		query  url.Values
	}{
		{
			name:   "add",
			opts:   opts("add", []string{"channels", "conda-forge"}, "force", true),
			method: http.MethodPut,
			path:   "/config/channels/conda-forge",
			body:   `{"force":true}`,
		},
		{
			name:   "set",
			opts:   opts("set", []string{"always_yes", "true"}, "force", true),
			method: http.MethodPut,
			path:   "/config/always_yes",
			body:   `{"force":true,"value":"true"}`,
		},
		{
			name:   "remove",
			opts:   opts("remove", []string{"channels", "defaults"}, "force", true),
			method: http.MethodDelete,
			path:   "/config/channels/defaults",
			query:  url.Values{"force": {"true"}},
		},
		{
			name:   "remove_key",
			opts:   opts("removeKey", "ssl_verify", "force", true),
			method: http.MethodDelete,
			path:   "/config/ssl_verify",
			query:  url.Values{"force": {"true"}},
		},
		{
			name:   "get_key",
			opts:   opts("get", "channels", "system", true),
			method: http.MethodGet,
			path:   "/config/channels",
			query:  url.Values{"system": {"true"}},
		},
		{
			name:   "get_all",
			opts:   opts("get", true),
			method: http.MethodGet,
			path:   "/config",
			query:  url.Values{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := remote.Select(remote.Resource, condarun.NewCommand("config", tt.opts))
			require.NoError(t, err)
			assert.Equal(t, tt.method, r.Method)
			assert.Equal(t, tt.path, r.Path)
			if tt.body != "" {
				assert.Equal(t, tt.body, body(t, r))
			} else {
				assert.Nil(t, r.Body)
				assert.Equal(t, tt.query, r.Query)
			}
		})
	}
}

func TestSelectResource_ConfigBadPair(t *testing.T) {
	_, err := remote.Select(remote.Resource, condarun.NewCommand("config", opts("add", "channels")))
	assert.ErrorIs(t, err, condarun.ErrValidationFailure)
}

func TestSelect_DoesNotMutateCommand(t *testing.T) {
	cmd := condarun.NewCommand("install", opts("name", "web"), "numpy")
	_, err := remote.Select(remote.Resource, cmd)
	require.NoError(t, err)
	assert.True(t, cmd.Options().Has("name"))
	assert.Equal(t, []string{"numpy"}, cmd.Positional())
}

func TestSelect_UnknownMode(t *testing.T) {
	_, err := remote.Select(remote.Mode(42), condarun.NewCommand("info", nil))
	assert.ErrorIs(t, err, condarun.ErrUnsupportedConfiguration)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]remote.Mode{"RPC": remote.Uniform, "uniform": remote.Uniform, "REST": remote.Resource, "resource": remote.Resource} {
		got, err := remote.ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := remote.ParseMode("SOAP")
	assert.ErrorIs(t, err, condarun.ErrUnsupportedConfiguration)
}
