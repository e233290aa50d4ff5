// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ik5/speechrig/rig"
)

func newControlsCmd(g *globals) *cobra.Command {
	var mapping bool

	cmd := &cobra.Command{
		Use:   "controls",
		Short: "List the rig controls the decoder predicts",
		Long: `List the decoder's output controls by track and region.

With --mapping, list the raw rig controls each GUI control drives instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}

			controls, err := controlsFrom(cfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if mapping {
				m, err := mapperFrom(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "GUI\tRAW\tFROM\tTO")
				for _, name := range controls.Names() {
					segs := m.Segments(name)
					if len(segs) == 0 {
						fmt.Fprintf(tw, "%s\t%s\t\t\n", name, name)
						continue
					}
					for _, s := range segs {
						fmt.Fprintf(tw, "%s\t%s\t%v\t%v\n", name, s.Raw, s.From, s.To)
					}
				}
				return tw.Flush()
			}

			fmt.Fprintln(tw, "TRACK\tCONTROL\tREGION")
			for _, t := range []struct {
				name     string
				controls []rig.Control
			}{
				{"face", controls.Face},
				{"blink", controls.Blink},
				{"head", controls.Head},
			} {
				for _, c := range t.controls {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", t.name, c.Name, c.Region)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&mapping, "mapping", false, "show the GUI -> raw mapping")
	return cmd
}
