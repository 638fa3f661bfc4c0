package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/conda"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "condarun",
		Short:         "Run package manager commands locally or against a remote service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (YAML, or JSON with comments); default $CONDARUN_CONFIG")
	pf.StringVar(&a.mode, "mode", "", "transport: local, rpc, rest or socket")
	pf.StringVar(&a.executable, "executable", "", "package manager binary for local mode")
	pf.StringVar(&a.apiRoot, "api-root", "", "HTTP API root for rpc and rest modes")
	pf.StringVar(&a.socketURL, "socket-url", "", "WebSocket endpoint for progress streaming")
	pf.BoolVarP(&a.progress, "progress", "p", false, "request progress and print it to stderr")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newInfoCmd(a),
		newSearchCmd(a),
		newListCmd(a),
		newInstallCmd(a),
		newUpdateCmd(a),
		newRemoveCmd(a),
		newCreateCmd(a),
		newCloneCmd(a),
		newRunCmd(a),
		newCleanCmd(a),
		newConfigCmd(a),
	)
	return root
}

// envSelector holds the --name/--prefix pair that picks an environment.
type envSelector struct {
	name   string
	prefix string
}

func (s *envSelector) register(cmd *cobra.Command, fs *pflag.FlagSet) {
	fs.StringVarP(&s.name, "name", "n", "", "environment name")
	fs.StringVar(&s.prefix, "prefix", "", "environment prefix")
	cmd.MarkFlagsMutuallyExclusive("name", "prefix")
}

// resolve returns the selected environment, or the root one.
func (s *envSelector) resolve(ctx context.Context, a *app) (*conda.Env, error) {
	switch {
	case s.name != "":
		return a.client.EnvByName(ctx, s.name)
	case s.prefix != "":
		return a.client.Env(s.prefix), nil
	default:
		return a.client.Root(ctx)
	}
}

// onProgress is the callback handed to the facade at dispatch, or nil
// when progress was not requested.
func (a *app) onProgress() condarun.ProgressFunc {
	if !a.progress {
		return nil
	}
	return a.printProgress
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show installation details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.client.Info(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(info.Raw)
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "search [regex]",
		Short: "Search the package index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := conda.SearchOptions{Spec: spec}
			if len(args) == 1 {
				opts.Regex = args[0]
			}
			index, err := a.client.Search(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return a.printValue(index)
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "match specification, e.g. 'numpy>=1.26'")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		sel       envSelector
		revisions bool
		full      bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List linked packages or revisions of an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, err := sel.resolve(ctx, a)
			if err != nil {
				return err
			}
			switch {
			case revisions:
				revs, err := env.Revisions(ctx)
				if err != nil {
					return err
				}
				return a.printValue(revs)
			case full:
				pkgs, err := env.Linked(ctx)
				if err != nil {
					return err
				}
				return a.printValue(pkgs)
			default:
				fns, err := env.LinkedFns(ctx)
				if err != nil {
					return err
				}
				return a.printValue(fns)
			}
		},
	}
	sel.register(cmd, cmd.Flags())
	cmd.Flags().BoolVar(&revisions, "revisions", false, "list revision history")
	cmd.Flags().BoolVar(&full, "full", false, "load package metadata")
	cmd.MarkFlagsMutuallyExclusive("revisions", "full")
	return cmd
}

func newInstallCmd(a *app) *cobra.Command {
	var sel envSelector
	cmd := &cobra.Command{
		Use:   "install PACKAGE...",
		Short: "Install packages into an environment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := sel.resolve(ctx, a)
			if err != nil {
				return err
			}
			fut, err := env.Install(ctx, conda.InstallOptions{Packages: args, OnProgress: a.onProgress()})
			if err != nil {
				return err
			}
			return a.finish(ctx, fut)
		},
	}
	sel.register(cmd, cmd.Flags())
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		sel  envSelector
		opts conda.UpdateOptions
	)
	cmd := &cobra.Command{
		Use:   "update [PACKAGE...]",
		Short: "Update packages in an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := sel.resolve(ctx, a)
			if err != nil {
				return err
			}
			opts.Packages = args
			opts.OnProgress = a.onProgress()
			fut, err := env.Update(ctx, opts)
			if err != nil {
				return err
			}
			return a.finish(ctx, fut)
		},
	}
	sel.register(cmd, cmd.Flags())
	fs := cmd.Flags()
	fs.BoolVar(&opts.All, "all", false, "update every package")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "only report what would change")
	fs.BoolVar(&opts.Unknown, "unknown", false, "use the index cache even for unknown packages")
	fs.BoolVar(&opts.NoDeps, "no-deps", false, "do not update dependencies")
	fs.BoolVar(&opts.UseIndexCache, "use-index-cache", false, "use the cached index")
	fs.BoolVar(&opts.UseLocal, "use-local", false, "use locally built packages")
	fs.BoolVar(&opts.NoPin, "no-pin", false, "ignore pinned packages")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var (
		sel envSelector
		all bool
	)
	cmd := &cobra.Command{
		Use:   "remove [PACKAGE...]",
		Short: "Remove packages, or with --all the whole environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := sel.resolve(ctx, a)
			if err != nil {
				return err
			}
			var fut *condarun.Future[json.RawMessage]
			if all {
				if len(args) > 0 {
					return errors.New("remove: --all takes no packages")
				}
				fut, err = env.RemoveEnv(ctx, conda.RemoveEnvOptions{OnProgress: a.onProgress()})
			} else {
				fut, err = env.Remove(ctx, conda.RemoveOptions{Packages: args, OnProgress: a.onProgress()})
			}
			if err != nil {
				return err
			}
			return a.finish(ctx, fut)
		},
	}
	sel.register(cmd, cmd.Flags())
	cmd.Flags().BoolVar(&all, "all", false, "remove the whole environment")
	return cmd
}

func newCreateCmd(a *app) *cobra.Command {
	var sel envSelector
	cmd := &cobra.Command{
		Use:   "create PACKAGE...",
		Short: "Create an environment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fut, err := a.client.CreateEnv(ctx, conda.CreateOptions{
				Name: sel.name, Prefix: sel.prefix, Packages: args, OnProgress: a.onProgress(),
			})
			if err != nil {
				return err
			}
			res, err := fut.Wait(ctx)
			if err != nil {
				return err
			}
			return a.printJSON(res.Raw)
		},
	}
	sel.register(cmd, cmd.Flags())
	return cmd
}

func newCloneCmd(a *app) *cobra.Command {
	var sel envSelector
	cmd := &cobra.Command{
		Use:   "clone SOURCE",
		Short: "Copy the environment named SOURCE to --name or --prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := a.client.EnvByName(ctx, args[0])
			if err != nil {
				return err
			}
			fut, err := src.Clone(ctx, conda.CloneOptions{Name: sel.name, Prefix: sel.prefix, OnProgress: a.onProgress()})
			if err != nil {
				return err
			}
			res, err := fut.Wait(ctx)
			if err != nil {
				return err
			}
			return a.printJSON(res.Raw)
		},
	}
	sel.register(cmd, cmd.Flags())
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var sel envSelector
	cmd := &cobra.Command{
		Use:   "run COMMAND",
		Short: "Launch an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				out json.RawMessage
				err error
			)
			if sel.name == "" && sel.prefix == "" {
				out, err = a.client.Run(ctx, args[0])
			} else {
				env, rerr := sel.resolve(ctx, a)
				if rerr != nil {
					return rerr
				}
				out, err = env.Run(ctx, conda.RunOptions{Name: args[0]})
			}
			if err != nil {
				return err
			}
			return a.printJSON(out)
		},
	}
	sel.register(cmd, cmd.Flags())
	return cmd
}

func newCleanCmd(a *app) *cobra.Command {
	var opts conda.CleanOptions
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.client.Clean(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return a.printJSON(out)
		},
	}
	fs := cmd.Flags()
	fs.BoolVar(&opts.DryRun, "dry-run", false, "only report what would be removed")
	fs.BoolVar(&opts.IndexCache, "index-cache", false, "remove the index cache")
	fs.BoolVar(&opts.Lock, "lock", false, "remove lock files")
	fs.BoolVar(&opts.Tarballs, "tarballs", false, "remove cached package archives")
	fs.BoolVar(&opts.Packages, "packages", false, "remove unused cached packages")
	return cmd
}

// finish waits for a raw result and prints it.
func (a *app) finish(ctx context.Context, fut *condarun.Future[json.RawMessage]) error {
	out, err := fut.Wait(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(out)
}
