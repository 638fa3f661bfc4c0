package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dmora/condarun/conda"
)

func newConfigCmd(a *app) *cobra.Command {
	var scope conda.ConfigOptions
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write the configuration file",
	}
	pf := cmd.PersistentFlags()
	pf.BoolVar(&scope.System, "system", false, "use the system configuration file")
	pf.StringVar(&scope.File, "file", "", "use this configuration file")
	cmd.MarkFlagsMutuallyExclusive("system", "file")

	open := func() (*conda.Config, error) {
		return a.client.Config(scope)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [KEY]",
			Short: "Print one key, or every key that is set",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := open()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					all, err := cfg.GetAll(cmd.Context())
					if err != nil {
						return err
					}
					return a.printValue(all)
				}
				v, err := cfg.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printValue(v)
			},
		},
		&cobra.Command{
			Use:   "rc-path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := open()
				if err != nil {
					return err
				}
				path, err := cfg.RCPath(cmd.Context())
				if err != nil {
					return err
				}
				return a.printValue(path)
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Set a key",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := open()
				if err != nil {
					return err
				}
				out, err := cfg.Set(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.printJSON(out)
			},
		},
		&cobra.Command{
			Use:   "add KEY VALUE",
			Short: "Append a value to a list key",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := open()
				if err != nil {
					return err
				}
				out, err := cfg.Add(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.printJSON(out)
			},
		},
		&cobra.Command{
			Use:   "remove KEY [VALUE]",
			Short: "Remove a value from a list key, or the whole key",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := open()
				if err != nil {
					return err
				}
				var out json.RawMessage
				if len(args) == 2 {
					out, err = cfg.Remove(cmd.Context(), args[0], args[1])
				} else {
					out, err = cfg.RemoveKey(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				return a.printJSON(out)
			},
		},
	)
	return cmd
}
