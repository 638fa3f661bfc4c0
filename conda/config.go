package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmora/condarun"
)

// AllowedConfigKeys lists the keys the Config facade reads and writes.
var AllowedConfigKeys = []string{
	"channels", "disallow", "create_default_packages", "track_features",
	"envs_dirs", "always_yes", "allow_softlinks", "changeps1", "use_pip",
	"binstar_upload", "binstar_personal", "show_channel_urls",
	"allow_other_channels", "ssl_verify",
}

var allowedKeysTag = "oneof=" + strings.Join(AllowedConfigKeys, " ")

// Config reads and writes one configuration file.
type Config struct {
	c     *Client
	scope *condarun.Options
}

// ConfigValue is the result of Config.Get. Set is false when the key has
// no value in the file.
type ConfigValue struct {
	Value json.RawMessage `json:"value"`
	Set   bool            `json:"set"`
}

type configResult struct {
	Get      map[string]json.RawMessage `json:"get"`
	RCPath   string                     `json:"rc_path"`
	Warnings []string                   `json:"warnings"`
}

// Config returns a facade over the file selected by opts.
func (c *Client) Config(opts ConfigOptions) (*Config, error) {
	if err := check("Config", opts); err != nil {
		return nil, err
	}
	scope := condarun.NewOptions()
	switch {
	case opts.System:
		scope.Set("system", true)
	case opts.File != "":
		scope.Set("file", opts.File)
	}
	return &Config{c: c, scope: scope}, nil
}

// RCPath returns the path of the configuration file.
func (cfg *Config) RCPath(ctx context.Context) (string, error) {
	res, err := cfg.run(ctx, "Config.rcPath", condarun.NewOptions().Set("get", true))
	if err != nil {
		return "", err
	}
	return res.RCPath, nil
}

// Get reads key.
func (cfg *Config) Get(ctx context.Context, key string) (ConfigValue, error) {
	const op = "Config.get"
	if err := checkKey(op, key); err != nil {
		return ConfigValue{}, err
	}
	res, err := cfg.run(ctx, op, condarun.NewOptions().Set("get", key))
	if err != nil {
		return ConfigValue{}, err
	}
	cfg.warn(op, res)
	v, ok := res.Get[key]
	return ConfigValue{Value: v, Set: ok}, nil
}

// GetAll reads every key set in the file.
func (cfg *Config) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	res, err := cfg.run(ctx, "Config.getAll", condarun.NewOptions().Set("get", true))
	if err != nil {
		return nil, err
	}
	return res.Get, nil
}

// Add appends value to the list under key.
func (cfg *Config) Add(ctx context.Context, key, value string) (json.RawMessage, error) {
	return cfg.write(ctx, "Config.add", key, condarun.NewOptions().Set("add", []string{key, value}))
}

// Set stores value under key.
func (cfg *Config) Set(ctx context.Context, key, value string) (json.RawMessage, error) {
	return cfg.write(ctx, "Config.set", key, condarun.NewOptions().Set("set", []string{key, value}))
}

// Remove deletes value from the list under key.
func (cfg *Config) Remove(ctx context.Context, key, value string) (json.RawMessage, error) {
	return cfg.write(ctx, "Config.remove", key, condarun.NewOptions().Set("remove", []string{key, value}))
}

// RemoveKey deletes key entirely.
func (cfg *Config) RemoveKey(ctx context.Context, key string) (json.RawMessage, error) {
	return cfg.write(ctx, "Config.removeKey", key, condarun.NewOptions().Set("removeKey", key))
}

func (cfg *Config) write(ctx context.Context, op, key string, flags *condarun.Options) (json.RawMessage, error) {
	if err := checkKey(op, key); err != nil {
		return nil, err
	}
	flags.Set("force", true)
	raw, err := cfg.c.call(ctx, op, condarun.NewCommand("config", cfg.merge(flags)))
	if err != nil {
		return nil, err
	}
	res, err := decode[configResult](op, raw)
	if err != nil {
		return nil, err
	}
	cfg.warn(op, res)
	return raw, nil
}

func (cfg *Config) run(ctx context.Context, op string, flags *condarun.Options) (configResult, error) {
	raw, err := cfg.c.call(ctx, op, condarun.NewCommand("config", cfg.merge(flags)))
	if err != nil {
		return configResult{}, err
	}
	return decode[configResult](op, raw)
}

// merge appends the file selection after the operation's own flags.
func (cfg *Config) merge(flags *condarun.Options) *condarun.Options {
	for _, k := range cfg.scope.Keys() {
		v, _ := cfg.scope.Get(k)
		flags.Set(k, v)
	}
	return flags
}

func (cfg *Config) warn(op string, res configResult) {
	if len(res.Warnings) > 0 {
		cfg.c.logger.Warn("conda: config warnings", "op", op, "warnings", res.Warnings)
	}
}

func checkKey(op, key string) error {
	if err := validate.Var(key, allowedKeysTag); err != nil {
		return &condarun.Error{
			Kind:    condarun.KindValidationFailure,
			Op:      op,
			Message: fmt.Sprintf("key %q not allowed, must be one of %s", key, strings.Join(AllowedConfigKeys, ", ")),
			Err:     err,
		}
	}
	return nil
}
