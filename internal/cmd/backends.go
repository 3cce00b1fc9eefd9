package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/bookmarks-cli/internal/output"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

type backendInfo struct {
	Name     string `json:"name" yaml:"name"`
	Default  bool   `json:"default" yaml:"default"`
	Selected bool   `json:"selected" yaml:"selected"`
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the PDF reader backends compiled into this binary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := resolveBackend(cmd, loadedConfig)
		if selected == "" {
			selected = toc.DefaultBackend
		}

		names := newRegistryFunc().Names()
		infos := make([]backendInfo, 0, len(names))
		for _, name := range names {
			infos = append(infos, backendInfo{
				Name:     name,
				Default:  name == toc.DefaultBackend,
				Selected: name == selected,
			})
		}

		if GetOutputFormat() != output.FormatText {
			return printStructured(cmd.Context(), infos)
		}

		out := stdoutFromContext(cmd.Context())
		for _, info := range infos {
			marker := " "
			if info.Selected {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, info.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
