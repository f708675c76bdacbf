package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/krado/pkg/meshio"
	"github.com/chazu/krado/pkg/ops"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.kmsh>",
		Short: "Print counts, blocks and measures of a kmsh file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("info: %w", err)
			}
			defer f.Close()

			m, err := meshio.Decode(f)
			if err != nil {
				return fmt.Errorf("info: %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			bb := m.BoundingBox()
			fmt.Fprintf(out, "points:   %d\n", m.NumPoints())
			fmt.Fprintf(out, "elements: %d\n", m.NumElements())
			fmt.Fprintf(out, "bounds:   (%g %g %g) - (%g %g %g)\n",
				bb.Min().X, bb.Min().Y, bb.Min().Z, bb.Max().X, bb.Max().Y, bb.Max().Z)

			if q, err := ops.Quality(m); err != nil {
				fmt.Fprintf(out, "quality:  not rated: %v\n", err)
			} else if len(q) > 0 {
				st := ops.SummarizeQuality(q)
				fmt.Fprintf(out, "quality:  min %.4f  mean %.4f  max %.4f (%s)\n", st.Min, st.Mean, st.Max, ops.Gamma)
			}

			measures, err := ops.ComputeVolumeByBlock(m)
			if err != nil {
				return fmt.Errorf("info: %s: %w", args[0], err)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "block\tname\tmeasure")
			for _, id := range m.BlockIDs() {
				fmt.Fprintf(tw, "%d\t%s\t%g\n", id, m.BlockName(id), measures[id])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if ids := m.SideSetIDs(); len(ids) > 0 {
				fmt.Fprintln(out, "side sets:")
				for _, id := range ids {
					sides, _ := m.SideSet(id)
					fmt.Fprintf(out, "  %d %s: %d sides\n", id, m.SideSetName(id), len(sides))
				}
			}
			if ids := m.NodeSetIDs(); len(ids) > 0 {
				fmt.Fprintln(out, "node sets:")
				for _, id := range ids {
					ns, _ := m.NodeSet(id)
					fmt.Fprintf(out, "  %d %s: %d nodes\n", id, m.NodeSetName(id), ns.GetCardinality())
				}
			}
			return nil
		},
	}
}
