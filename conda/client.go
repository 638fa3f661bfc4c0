package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dmora/condarun"
)

// Client issues package manager commands over a Transport.
// A Client is safe for concurrent use.
type Client struct {
	t      condarun.Transport
	logger *slog.Logger
	pkgs   *Packages
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client dispatching through t.
func New(t condarun.Transport, opts ...Option) *Client {
	c := &Client{t: t, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.pkgs = newPackages(c)
	return c
}

// Packages returns the client's package metadata cache.
func (c *Client) Packages() *Packages { return c.pkgs }

// Info describes the installation.
type Info struct {
	CondaVersion  string   `json:"conda_version"`
	Platform      string   `json:"platform"`
	DefaultPrefix string   `json:"default_prefix"`
	RootPrefix    string   `json:"root_prefix"`
	Envs          []string `json:"envs"`
	Channels      []string `json:"channels"`

	// Raw is the complete document.
	Raw json.RawMessage `json:"-"`
}

// Info runs "info".
func (c *Client) Info(ctx context.Context) (*Info, error) {
	raw, err := c.call(ctx, "info", condarun.NewCommand("info", nil))
	if err != nil {
		return nil, err
	}
	info, err := decode[Info]("info", raw)
	if err != nil {
		return nil, err
	}
	info.Raw = raw
	return &info, nil
}

// SearchIndex maps package names to their available builds.
type SearchIndex map[string][]PackageInfo

// Search runs "search". A Spec is passed positionally with the spec flag
// set.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (SearchIndex, error) {
	const op = "search"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	flags := condarun.NewOptions()
	var positional []string
	if opts.Regex != "" {
		positional = append(positional, opts.Regex)
	}
	if opts.Spec != "" {
		positional = append(positional, opts.Spec)
		flags.Set("spec", true)
	}
	raw, err := c.call(ctx, op, condarun.NewCommand(op, flags, positional...))
	if err != nil {
		return nil, err
	}
	return decode[SearchIndex](op, raw)
}

// Run launches command from the root environment.
func (c *Client) Run(ctx context.Context, command string) (json.RawMessage, error) {
	if command == "" {
		return nil, condarun.ValidationError("run", "command required")
	}
	return c.call(ctx, "run", condarun.NewCommand("run", nil, command))
}

// Clean removes cached data.
func (c *Client) Clean(ctx context.Context, opts CleanOptions) (json.RawMessage, error) {
	const op = "clean"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	flags := condarun.NewOptions().
		Set("dryRun", opts.DryRun).
		Set("indexCache", opts.IndexCache).
		Set("lock", opts.Lock).
		Set("tarballs", opts.Tarballs).
		Set("packages", opts.Packages)
	return c.call(ctx, op, condarun.NewCommand(op, flags))
}

// Envs lists every environment. The first entry is the root environment;
// the rest follow the order reported by "info".
func (c *Client) Envs(ctx context.Context) ([]*Env, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return nil, err
	}
	envs := make([]*Env, 0, len(info.Envs)+1)
	envs = append(envs, c.newEnv("root", info.DefaultPrefix))
	for _, prefix := range info.Envs {
		envs = append(envs, c.newEnv(filepath.Base(prefix), prefix))
	}
	for _, e := range envs {
		e.IsDefault = e.Prefix == info.DefaultPrefix
		e.IsRoot = e.Prefix == info.RootPrefix
	}
	return envs, nil
}

// Env returns the environment at prefix without contacting the tool. Its
// name is the last path element.
func (c *Client) Env(prefix string) *Env {
	return c.newEnv(filepath.Base(prefix), prefix)
}

// EnvByName finds a listed environment by name.
func (c *Client) EnvByName(ctx context.Context, name string) (*Env, error) {
	envs, err := c.Envs(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range envs {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, condarun.ValidationError("EnvByName", fmt.Sprintf("no environment named %q", name))
}

// Root returns the root environment.
func (c *Client) Root(ctx context.Context) (*Env, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return nil, err
	}
	root := c.newEnv("root", info.DefaultPrefix)
	root.IsDefault = true
	root.IsRoot = true
	return root, nil
}

// CreateEnv creates an environment holding opts.Packages. opts.OnProgress
// receives every progress payload, and the returned Future re-exposes them
// for later subscribers. On success the result has Env set.
func (c *Client) CreateEnv(ctx context.Context, opts CreateOptions) (*condarun.Future[*CreateResult], error) {
	const op = "Env.create"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	flags := condarun.NewOptions()
	if opts.Name != "" {
		flags.Set("name", opts.Name)
	} else {
		flags.Set("prefix", opts.Prefix)
	}
	flags.Set("quiet", quiet(opts.Progress, opts.OnProgress))

	fut, err := c.execute(ctx, op, condarun.NewCommand("create", flags, opts.Packages...), opts.OnProgress)
	if err != nil {
		return nil, err
	}
	return condarun.ThenWithProgress(fut, func(raw json.RawMessage) (*CreateResult, error) {
		return c.parseCreate(op, raw, opts.Name)
	}), nil
}

// CreateResult is the outcome of creating or cloning an environment.
type CreateResult struct {
	Success bool

	// Prefix is where the environment was created.
	Prefix string

	// Env is set when Success is true.
	Env *Env

	// Raw is the complete document.
	Raw json.RawMessage
}

func (c *Client) parseCreate(op string, raw json.RawMessage, name string) (*CreateResult, error) {
	doc, err := decode[struct {
		Success bool `json:"success"`
		Actions struct {
			Prefix string `json:"PREFIX"`
		} `json:"actions"`
	}](op, raw)
	if err != nil {
		return nil, err
	}
	res := &CreateResult{Success: doc.Success, Prefix: doc.Actions.Prefix, Raw: raw}
	if res.Success {
		if name == "" {
			name = filepath.Base(res.Prefix)
		}
		res.Env = c.newEnv(name, res.Prefix)
	}
	return res, nil
}

func (c *Client) execute(ctx context.Context, op string, cmd condarun.Command, progress ...condarun.ProgressFunc) (*condarun.Future[json.RawMessage], error) {
	c.logger.DebugContext(ctx, "conda: dispatch", "op", op, "command", cmd.Name())
	return c.t.Execute(ctx, cmd, progress...)
}

// quiet is the value of the quiet flag: progress is requested explicitly
// or by passing a callback.
func quiet(progress bool, fn condarun.ProgressFunc) bool {
	return !progress && fn == nil
}

// call dispatches cmd and waits for its result.
func (c *Client) call(ctx context.Context, op string, cmd condarun.Command) (json.RawMessage, error) {
	fut, err := c.execute(ctx, op, cmd)
	if err != nil {
		return nil, err
	}
	return fut.Wait(ctx)
}

func decode[T any](op string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, condarun.DecodeError(op, string(raw), err)
	}
	return v, nil
}
