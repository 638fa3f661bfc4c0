package conda

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmora/condarun"
)

// PackageInfo is one build record from the search index or "info".
type PackageInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Channel     string   `json:"channel"`
	Depends     []string `json:"depends"`
	Size        int64    `json:"size"`
}

// Package is a cached package, identified by its file name
// (name-version-build, without extension).
type Package struct {
	Fn      string
	Name    string
	Version string
	Build   string
	Info    PackageInfo
}

// PackageSpec is a file name split into its parts.
type PackageSpec struct {
	Name    string
	Version string
	Build   string
}

// SplitFn splits name-version-build. Names may contain dashes; version
// and build may not.
func SplitFn(fn string) (PackageSpec, error) {
	parts := strings.Split(fn, "-")
	if len(parts) < 3 {
		return PackageSpec{}, condarun.ValidationError("SplitFn", fmt.Sprintf("%q is not name-version-build", fn))
	}
	n := len(parts)
	return PackageSpec{
		Name:    strings.Join(parts[:n-2], "-"),
		Version: parts[n-2],
		Build:   parts[n-1],
	}, nil
}

// Packages caches package metadata for a Client.
//
// Metadata comes from the search index, fetched once per cache lifetime.
// Packages the index does not list with a matching version and build
// (locally built ones, for instance) fall back to "info" on the package
// archive.
type Packages struct {
	c *Client

	mu    sync.Mutex
	cache map[string]*Package

	// indexMu serializes index fetches so concurrent loads share one.
	indexMu sync.Mutex
	index   SearchIndex
}

func newPackages(c *Client) *Packages {
	return &Packages{c: c, cache: make(map[string]*Package)}
}

// Load returns metadata for fn, from the cache unless reload is set.
func (p *Packages) Load(ctx context.Context, fn string, reload bool) (*Package, error) {
	if !reload {
		p.mu.Lock()
		pkg, ok := p.cache[fn]
		p.mu.Unlock()
		if ok {
			return pkg, nil
		}
	}

	index, err := p.searchIndex(ctx)
	if err != nil {
		return nil, err
	}

	spec, splitErr := SplitFn(fn)
	var pkg *Package
	if splitErr == nil {
		for _, info := range index[spec.Name] {
			if info.Version == spec.Version && info.Build == spec.Build {
				pkg = newPackage(fn, info)
				break
			}
		}
	}
	if pkg == nil {
		if pkg, err = p.loadInfo(ctx, fn); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	p.cache[fn] = pkg
	p.mu.Unlock()
	return pkg, nil
}

// Reload drops every cached package and the search index.
func (p *Packages) Reload() {
	p.indexMu.Lock()
	p.index = nil
	p.indexMu.Unlock()

	p.mu.Lock()
	clear(p.cache)
	p.mu.Unlock()
}

// Len returns the number of cached packages.
func (p *Packages) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// searchIndex fetches the index on first use. Failed fetches are not
// cached.
func (p *Packages) searchIndex(ctx context.Context) (SearchIndex, error) {
	p.indexMu.Lock()
	defer p.indexMu.Unlock()
	if p.index != nil {
		return p.index, nil
	}
	index, err := p.c.Search(ctx, SearchOptions{})
	if err != nil {
		return nil, err
	}
	if index == nil {
		index = SearchIndex{}
	}
	p.index = index
	return index, nil
}

func (p *Packages) loadInfo(ctx context.Context, fn string) (*Package, error) {
	const op = "Package.load"
	archive := fn + ".tar.bz2"
	raw, err := p.c.call(ctx, op, condarun.NewCommand("info", nil, archive))
	if err != nil {
		return nil, err
	}
	infos, err := decode[map[string]PackageInfo](op, raw)
	if err != nil {
		return nil, err
	}
	info, ok := infos[archive]
	if !ok {
		return nil, condarun.DecodeError(op, string(raw), fmt.Errorf("no entry for %s", archive))
	}
	return newPackage(fn, info), nil
}

func newPackage(fn string, info PackageInfo) *Package {
	pkg := &Package{Fn: fn, Name: info.Name, Version: info.Version, Build: info.Build, Info: info}
	if spec, err := SplitFn(fn); err == nil {
		if pkg.Name == "" {
			pkg.Name = spec.Name
		}
		if pkg.Version == "" {
			pkg.Version = spec.Version
		}
		if pkg.Build == "" {
			pkg.Build = spec.Build
		}
	}
	return pkg
}
