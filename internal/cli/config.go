package cli

import (
	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change ~/.supportsync/config.json",
	}
	cmd.AddCommand(newConfigGetCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	cmd.AddCommand(newConfigPathCmd(app))
	return cmd
}

func newConfigGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print one config value, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			keys := store.ConfigKeys()
			if len(args) == 1 {
				keys = args
			}
			out := map[string]string{}
			tbl := format.Table{Header: []string{"key", "value"}}
			for _, k := range keys {
				v, err := cfg.Get(k)
				if err != nil {
					return writeErr(cmd, err)
				}
				out[k] = v
				tbl.Rows = append(tbl.Rows, []string{k, v})
			}
			return writeData(cmd, app, out, func() format.Table { return tbl })
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value (empty value clears it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			v, _ := cfg.Get(args[0])
			return writeData(cmd, app, map[string]string{args[0]: v}, nil)
		},
	}
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]string{"path": p}, nil)
		},
	}
}
