package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/cragtopo/internal/topo"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Check topo lines and print their drawn length",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := "-"
		if len(args) == 1 {
			src = args[0]
		}
		in, err := readInput(src)
		if err != nil {
			return err
		}

		vb := topo.ViewBoxFor(topo.PhotoAspect(in.Photo))
		out := cmd.OutOrStdout()
		failed := 0
		for _, r := range in.Routes {
			if err := topo.Validate(r.TopoLine); err != nil {
				fmt.Fprintf(out, "FAIL  %-20s %v\n", r.ID, err)
				failed++
				continue
			}
			if !r.TopoLine.Annotated() {
				fmt.Fprintf(out, "SKIP  %-20s %d point(s), not drawn\n", r.ID, len(r.TopoLine))
				continue
			}
			segs := topo.Segments(topo.Scale(r.TopoLine, vb), tension)
			fmt.Fprintf(out, "OK    %-20s %2d points  length %.1f\n", r.ID, len(r.TopoLine), topo.PathLength(segs))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d lines invalid", failed, len(in.Routes))
		}
		return nil
	},
}
