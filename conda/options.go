package conda

import "github.com/dmora/condarun"

// SearchOptions narrows Client.Search. At most one of Regex and Spec.
type SearchOptions struct {
	// Regex filters package names.
	Regex string `json:"regex" validate:"excluded_with=Spec"`

	// Spec is a package match specification, e.g. "numpy>=1.20".
	Spec string `json:"spec"`
}

// CleanOptions selects what Client.Clean removes. At least one target
// besides DryRun is required.
type CleanOptions struct {
	DryRun     bool `json:"dryRun"`
	IndexCache bool `json:"indexCache" validate:"required_without_all=Lock Tarballs Packages"`
	Lock       bool `json:"lock"`
	Tarballs   bool `json:"tarballs"`
	Packages   bool `json:"packages"`
}

// InstallOptions configures Env.Install.
type InstallOptions struct {
	Packages []string `json:"packages" validate:"min=1"`

	// Progress requests progress updates on the returned Future.
	Progress bool `json:"progress"`

	// OnProgress, when set, receives every progress payload and implies
	// Progress.
	OnProgress condarun.ProgressFunc `json:"-" validate:"-"`
}

// UpdateOptions configures Env.Update. Packages may be empty only when
// All is set.
type UpdateOptions struct {
	Packages      []string `json:"packages"`
	All           bool     `json:"all"`
	DryRun        bool     `json:"dryRun"`
	Unknown       bool     `json:"unknown"`
	NoDeps        bool     `json:"noDeps"`
	UseIndexCache bool     `json:"useIndexCache"`
	UseLocal      bool     `json:"useLocal"`
	NoPin         bool     `json:"noPin"`
	Progress      bool     `json:"progress"`

	OnProgress condarun.ProgressFunc `json:"-" validate:"-"`
}

// RemoveOptions configures Env.Remove.
type RemoveOptions struct {
	Packages []string `json:"packages" validate:"min=1"`
	Progress bool     `json:"progress"`

	OnProgress condarun.ProgressFunc `json:"-" validate:"-"`
}

// CreateOptions configures Client.CreateEnv. Exactly one of Name and
// Prefix.
type CreateOptions struct {
	Name     string   `json:"name" validate:"required_without=Prefix,excluded_with=Prefix"`
	Prefix   string   `json:"prefix"`
	Packages []string `json:"packages" validate:"min=1"`
	Progress bool     `json:"progress"`

	OnProgress condarun.ProgressFunc `json:"-" validate:"-"`
}

// CloneOptions names the target of Env.Clone. Exactly one of Name and
// Prefix.
type CloneOptions struct {
	Name     string `json:"name" validate:"required_without=Prefix,excluded_with=Prefix"`
	Prefix   string `json:"prefix"`
	Progress bool   `json:"progress"`

	OnProgress condarun.ProgressFunc `json:"-" validate:"-"`
}

// RemoveEnvOptions configures Env.RemoveEnv.
type RemoveEnvOptions struct {
	Progress   bool                  `json:"progress"`
	OnProgress condarun.ProgressFunc `json:"-" validate:"-"`
}

// RunOptions selects what Env.Run launches. Exactly one of Name and Pkg.
type RunOptions struct {
	Name string `json:"name" validate:"required_without=Pkg,excluded_with=Pkg"`
	Pkg  string `json:"pkg"`
}

// ConfigOptions selects the configuration file. At most one of System and
// File; neither means the user's file.
type ConfigOptions struct {
	System bool   `json:"system" validate:"excluded_with=File"`
	File   string `json:"file"`
}
