package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/samirrijal/cragtopo/internal/topo"
)

var viewBoxCmd = &cobra.Command{
	Use:   "viewbox <width> <height>",
	Short: "Print the viewBox used for a photo of the given pixel size",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("width: %w", err)
		}
		h, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("height: %w", err)
		}
		aspect := topo.AspectRatio(w, h)
		vb := topo.ViewBoxFor(aspect)
		fmt.Fprintf(cmd.OutOrStdout(), "0 0 %s %s  (aspect %.4f)\n",
			strconv.FormatFloat(vb.Width, 'f', -1, 64), strconv.FormatFloat(vb.Height, 'f', -1, 64), aspect)
		return nil
	},
}
