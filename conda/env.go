package conda

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/internal/jsonutil"
)

// Env is one environment, addressed by its prefix.
type Env struct {
	Name      string
	Prefix    string
	IsDefault bool
	IsRoot    bool

	c *Client

	mu        sync.Mutex
	installed map[string]*Package
	history   []json.RawMessage
}

func (c *Client) newEnv(name, prefix string) *Env {
	return &Env{Name: name, Prefix: prefix, c: c}
}

// Installed returns the packages recorded by the last successful Linked
// call, keyed by package name.
func (e *Env) Installed() map[string]*Package {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.installed)
}

// History returns the revisions recorded by the last successful
// Revisions call.
func (e *Env) History() []json.RawMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

// LinkedFns lists the package file names linked into the environment.
func (e *Env) LinkedFns(ctx context.Context) ([]string, error) {
	const op = "Env.linked"
	raw, err := e.c.call(ctx, op, condarun.NewCommand("list", e.scope()))
	if err != nil {
		return nil, err
	}
	items, err := decode[[]json.RawMessage](op, raw)
	if err != nil {
		return nil, err
	}
	fns := make([]string, 0, len(items))
	for _, item := range items {
		var fn string
		if err := json.Unmarshal(item, &fn); err == nil {
			fns = append(fns, fn)
			continue
		}
		// Newer tools list records instead of bare file names.
		if name := jsonutil.GetString(jsonutil.Object(item), "dist_name"); name != "" {
			fns = append(fns, name)
			continue
		}
		return nil, condarun.DecodeError(op, string(raw), errors.New("list entry is neither a file name nor a record"))
	}
	return fns, nil
}

// Linked loads metadata for every linked package through the client's
// Packages cache and records the result as Installed.
func (e *Env) Linked(ctx context.Context) ([]*Package, error) {
	fns, err := e.LinkedFns(ctx)
	if err != nil {
		return nil, err
	}

	pkgs := make([]*Package, len(fns))
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pkgs[i], errs[i] = e.c.pkgs.Load(ctx, fn, false)
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	installed := make(map[string]*Package, len(pkgs))
	for _, p := range pkgs {
		installed[p.Name] = p
	}
	e.mu.Lock()
	e.installed = installed
	e.mu.Unlock()
	return pkgs, nil
}

// Revisions lists the environment's revision history and records it as
// History.
func (e *Env) Revisions(ctx context.Context) ([]json.RawMessage, error) {
	const op = "Env.revisions"
	raw, err := e.c.call(ctx, op, condarun.NewCommand("list", e.scope().Set("revisions", true)))
	if err != nil {
		return nil, err
	}
	revs, err := decode[[]json.RawMessage](op, raw)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.history = revs
	e.mu.Unlock()
	return slices.Clone(revs), nil
}

// Install adds packages to the environment.
func (e *Env) Install(ctx context.Context, opts InstallOptions) (*condarun.Future[json.RawMessage], error) {
	const op = "Env.install"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	flags := condarun.NewOptions().
		Set("quiet", quiet(opts.Progress, opts.OnProgress)).
		Set("prefix", e.Prefix)
	return e.c.execute(ctx, op, condarun.NewCommand("install", flags, opts.Packages...), opts.OnProgress)
}

// Update upgrades packages in the environment.
func (e *Env) Update(ctx context.Context, opts UpdateOptions) (*condarun.Future[json.RawMessage], error) {
	const op = "Env.update"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	flags := condarun.NewOptions().
		Set("dryRun", opts.DryRun).
		Set("unknown", opts.Unknown).
		Set("noDeps", opts.NoDeps).
		Set("useIndexCache", opts.UseIndexCache).
		Set("useLocal", opts.UseLocal).
		Set("noPin", opts.NoPin).
		Set("all", opts.All).
		Set("quiet", quiet(opts.Progress, opts.OnProgress)).
		Set("prefix", e.Prefix)
	return e.c.execute(ctx, op, condarun.NewCommand("update", flags, opts.Packages...), opts.OnProgress)
}

// Remove uninstalls packages from the environment.
func (e *Env) Remove(ctx context.Context, opts RemoveOptions) (*condarun.Future[json.RawMessage], error) {
	const op = "Env.remove"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	flags := condarun.NewOptions().
		Set("quiet", quiet(opts.Progress, opts.OnProgress)).
		Set("prefix", e.Prefix)
	return e.c.execute(ctx, op, condarun.NewCommand("remove", flags, opts.Packages...), opts.OnProgress)
}

// Clone copies the environment to a new name or prefix. A clone the tool
// reports as unsuccessful rejects the Future.
func (e *Env) Clone(ctx context.Context, opts CloneOptions) (*condarun.Future[*CreateResult], error) {
	const op = "Env.clone"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	flags := condarun.NewOptions()
	if opts.Name != "" {
		flags.Set("name", opts.Name)
	} else {
		flags.Set("prefix", opts.Prefix)
	}
	flags.Set("clone", e.Prefix).Set("quiet", quiet(opts.Progress, opts.OnProgress))

	fut, err := e.c.execute(ctx, op, condarun.NewCommand("create", flags), opts.OnProgress)
	if err != nil {
		return nil, err
	}
	return condarun.ThenWithProgress(fut, func(raw json.RawMessage) (*CreateResult, error) {
		res, err := e.c.parseCreate(op, raw, opts.Name)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, &condarun.Error{
				Kind:    condarun.KindTransportFailure,
				Op:      op,
				Message: failureMessage(raw, "clone reported failure"),
				Raw:     string(raw),
			}
		}
		return res, nil
	}), nil
}

// Run launches an application from the environment.
func (e *Env) Run(ctx context.Context, opts RunOptions) (json.RawMessage, error) {
	const op = "Env.run"
	if err := check(op, opts); err != nil {
		return nil, err
	}
	target := opts.Name
	if opts.Pkg != "" {
		target = opts.Pkg
	}
	return e.c.call(ctx, op, condarun.NewCommand("run", e.scope(), target))
}

// RemoveEnv deletes the whole environment.
func (e *Env) RemoveEnv(ctx context.Context, opts RemoveEnvOptions) (*condarun.Future[json.RawMessage], error) {
	flags := condarun.NewOptions().
		Set("all", true).
		Set("prefix", e.Prefix).
		Set("quiet", quiet(opts.Progress, opts.OnProgress))
	return e.c.execute(ctx, "Env.removeEnv", condarun.NewCommand("remove", flags), opts.OnProgress)
}

func (e *Env) scope() *condarun.Options {
	return condarun.NewOptions().Set("prefix", e.Prefix)
}

// failureMessage returns the "error" field of a tool report, or fallback.
func failureMessage(raw json.RawMessage, fallback string) string {
	if msg := jsonutil.GetString(jsonutil.Object(raw), "error"); msg != "" {
		return msg
	}
	return fallback
}
