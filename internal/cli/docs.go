package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/docs"
	"github.com/Saurabhh-37/supportsync/internal/format"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in documentation topics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				topics := docs.Topics()
				return writeData(cmd, app, map[string]any{"topics": topics}, func() format.Table {
					t := format.Table{Header: []string{"topic"}}
					for _, x := range topics {
						t.Rows = append(t.Rows, []string{x})
					}
					return t
				})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `supportsync docs` to list topics)", topic))
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return writeData(cmd, app, map[string]any{"topic": topic, "markdown": body}, nil)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	return cmd
}
