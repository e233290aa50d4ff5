// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ik5/speechrig/cmd/speechrig/internal/build"
)

func newVersionCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(build.Get())
			}

			fmt.Fprintln(out, build.String())
			if g.verbose {
				info := build.Get()
				fmt.Fprintf(out, "  go:     %s\n", info.Go)
				if cfg, err := g.config(); err == nil {
					fmt.Fprintf(out, "  onnx:   %s\n", orDefault(cfg.Runtime.LibraryPath, "(system default)"))
				} else {
					fmt.Fprintf(out, "  config: (unavailable: %v)\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")
	return cmd
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
