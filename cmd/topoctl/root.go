package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/topo"
)

var (
	tension float64
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "topoctl",
	Short:         "Render and check bouldering topo lines",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Float64Var(&tension, "tension", 0.5, "Curve tension in [0,1]; 1 draws straight segments")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(renderCmd, validateCmd, viewBoxCmd)
}

func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// topoInput is what render and validate read: one route or a list of them.
type topoInput struct {
	Photo  *domain.Photo  `json:"photo,omitempty"`
	Routes []domain.Route `json:"routes"`
}

// readInput reads JSON from path, or stdin for "-". A bare route object or
// a bare topo line array is accepted too.
func readInput(path string) (*topoInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseInput(data)
}

func parseInput(data []byte) (*topoInput, error) {
	var in topoInput
	if err := json.Unmarshal(data, &in); err == nil && len(in.Routes) > 0 {
		return &in, nil
	}

	var route domain.Route
	if err := json.Unmarshal(data, &route); err == nil && len(route.TopoLine) > 0 {
		if route.ID == "" {
			route.ID = "route"
		}
		return &topoInput{Photo: route.Photo, Routes: []domain.Route{route}}, nil
	}

	var line domain.TopoLine
	if err := json.Unmarshal(data, &line); err != nil {
		return nil, fmt.Errorf("input is neither routes, a route nor a topo line: %w", err)
	}
	return &topoInput{Routes: []domain.Route{{ID: "route", TopoLine: line}}}, nil
}

func (in *topoInput) lines() []topo.Line {
	out := make([]topo.Line, 0, len(in.Routes))
	for _, r := range in.Routes {
		out = append(out, topo.Line{RouteID: r.ID, Grade: r.Grade, Points: r.TopoLine})
	}
	return out
}
