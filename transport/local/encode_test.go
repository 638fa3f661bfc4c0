package local_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/transport/local"
)

func TestFlagName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"useIndexCache", "--use-index-cache"},
		{"prefix", "--prefix"},
		{"dryRun", "--dry-run"},
		{"removeKey", "--remove-key"},
		{"already-dashed", "--already-dashed"},
		{"", "--"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, local.FlagName(tt.in), "FlagName(%q)", tt.in)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  condarun.Command
		want []string
	}{
		{
			name: "bare",
			cmd:  condarun.NewCommand("info", nil),
			want: []string{"info", "--json"},
		},
		{
			name: "false_and_null_omitted",
			cmd: condarun.NewCommand("install",
				condarun.NewOptions().Set("quiet", false).Set("name", nil).Set("dryRun", true),
				"numpy"),
			want: []string{"install", "--dry-run", "numpy", "--json"},
		},
		{
			name: "scalar_value",
			cmd: condarun.NewCommand("install",
				condarun.NewOptions().Set("prefix", "/opt/envs/web").Set("quiet", true),
				"numpy", "scipy"),
			want: []string{"install", "--prefix", "/opt/envs/web", "--quiet", "numpy", "scipy", "--json"},
		},
		{
			name: "sequence_value",
			cmd: condarun.NewCommand("config",
				condarun.NewOptions().Set("add", []string{"channels", "conda-forge"}).Set("force", true)),
			want: []string{"config", "--add", "channels", "conda-forge", "--force", "--json"},
		},
		{
			name: "numeric_value",
			cmd:  condarun.NewCommand("list", condarun.NewOptions().Set("revision", 3)),
			want: []string{"list", "--revision", "3", "--json"},
		},
		{
			name: "empty_sequence",
			cmd:  condarun.NewCommand("create", condarun.NewOptions().Set("channel", []string{})),
			want: []string{"create", "--channel", "--json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, local.Encode(tt.cmd))
		})
	}
}

func TestEncode_JSONFlagAlwaysLast(t *testing.T) {
	opts := condarun.NewOptions().Set("json", true).Set("spec", true)
	argv := local.Encode(condarun.NewCommand("search", opts, "numpy>=1.0"))
	assert.Equal(t, local.JSONFlag, argv[len(argv)-1])
	assert.Equal(t, "numpy>=1.0", argv[len(argv)-2])
}

func TestEncode_StableOrder(t *testing.T) {
	opts := condarun.NewOptions()
	for _, k := range []string{"zeta", "alpha", "mid", "beta"} {
		opts.Set(k, true)
	}
	cmd := condarun.NewCommand("update", opts)
	first := local.Encode(cmd)
	for range 10 {
		assert.Equal(t, first, local.Encode(cmd))
	}
	assert.Equal(t, []string{"update", "--zeta", "--alpha", "--mid", "--beta", "--json"}, first)
}
