package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/cragtopo/internal/topo"
)

var (
	renderOut     string
	renderFormat  string
	renderScale   float64
	renderFit     string
	renderAnimate bool
	renderAspect  float64
	renderStroke  float64
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render topo lines to SVG or PNG",
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
		for _, r := range in.Routes {
			if err := topo.Validate(r.TopoLine); err != nil {
				return fmt.Errorf("route %s: %w", r.ID, err)
			}
		}

		aspect := renderAspect
		if aspect <= 0 {
			aspect = topo.PhotoAspect(in.Photo)
		}
		opts := topo.OverlayOptions{
			Aspect:      aspect,
			ObjectFit:   renderFit,
			Tension:     tension,
			StrokeWidth: renderStroke,
			Animate:     renderAnimate,
			Duration:    1200 * time.Millisecond,
		}

		format := strings.ToLower(renderFormat)
		if format == "" && strings.HasSuffix(renderOut, ".png") {
			format = "png"
		}
		logVerbose("rendering %d lines as %s, aspect %.3f", len(in.Routes), format, aspect)

		var render func(io.Writer) error
		switch format {
		case "", "svg":
			render = func(w io.Writer) error { return topo.RenderOverlay(w, in.lines(), opts) }
		case "png":
			render = func(w io.Writer) error { return topo.RasterizePNG(w, in.lines(), opts, renderScale) }
		default:
			return fmt.Errorf("unknown format %q (svg or png)", renderFormat)
		}

		if renderOut == "" {
			return render(cmd.OutOrStdout())
		}
		return writeFile(renderOut, render)
	},
}

// writeFile renders into path and reports write, flush and close errors.
func writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := render(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "Output file (default stdout)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "svg or png (default from --output, else svg)")
	renderCmd.Flags().Float64Var(&renderScale, "scale", 2, "PNG pixels per viewBox unit")
	renderCmd.Flags().StringVar(&renderFit, "object-fit", "contain", "contain or cover")
	renderCmd.Flags().BoolVar(&renderAnimate, "animate", false, "Embed the CSS draw-in animation")
	renderCmd.Flags().Float64Var(&renderAspect, "aspect", 0, "Photo aspect ratio width/height (default from the photo, else 4:3)")
	renderCmd.Flags().Float64Var(&renderStroke, "stroke-width", 4, "Line width in viewBox units")
}
