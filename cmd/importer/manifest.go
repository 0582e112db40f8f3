package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/pkg/geospatial"
	"github.com/samirrijal/cragtopo/internal/topo"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string      `json:"source"`
	Cities []CityEntry `json:"cities"`
	Crags  []CragEntry `json:"crags"`
}

type CityEntry struct {
	Slug     string           `json:"slug"`
	Name     domain.Localized `json:"name"`
	Country  string           `json:"country"`
	Location domain.GeoPoint  `json:"location"`
}

type CragEntry struct {
	Slug        string           `json:"slug"`
	City        string           `json:"city"`
	Name        domain.Localized `json:"name"`
	Description domain.Localized `json:"description,omitempty"`
	Location    domain.GeoPoint  `json:"location"`
	// Parking, when set and approach_minutes is not, derives the approach walk.
	Parking         *domain.GeoPoint `json:"parking,omitempty"`
	ApproachMinutes int              `json:"approach_minutes,omitempty"`
	Photo           *domain.Photo    `json:"photo,omitempty"`
	Routes          []RouteEntry     `json:"routes"`
}

type RouteEntry struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Grade       string           `json:"grade"`
	Description domain.Localized `json:"description,omitempty"`
	Photo       *domain.Photo    `json:"photo,omitempty"`
	TopoLine    domain.TopoLine  `json:"topo_line,omitempty"`
}

// readManifest loads a manifest from a file path or an http(s) URL.
func readManifest(ctx context.Context, client *http.Client, src string) (*Manifest, error) {
	var r io.Reader
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src)
		}
		r = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// toCrag converts an entry to a crag of the given city.
func (e CragEntry) toCrag(cityID string) domain.Crag {
	approach := e.ApproachMinutes
	if approach == 0 && e.Parking != nil {
		d := geospatial.Haversine(e.Parking.Lat, e.Parking.Lon, e.Location.Lat, e.Location.Lon)
		approach = geospatial.WalkingMinutes(d)
	}
	return domain.Crag{
		Slug:            e.Slug,
		CityID:          cityID,
		Name:            e.Name,
		Description:     e.Description,
		Location:        e.Location,
		ApproachMinutes: approach,
		Photo:           e.Photo,
	}
}

// toRoutes converts the route entries of a crag. Routes with an invalid topo
// line are kept without the line; the problems are returned joined.
func (e CragEntry) toRoutes(cragID string) ([]domain.Route, error) {
	var errs []error
	seen := make(map[string]bool, len(e.Routes))
	out := make([]domain.Route, 0, len(e.Routes))
	for _, r := range e.Routes {
		if r.Slug == "" || r.Name == "" {
			errs = append(errs, fmt.Errorf("%s: route without slug or name", e.Slug))
			continue
		}
		if seen[r.Slug] {
			errs = append(errs, fmt.Errorf("%s/%s: duplicate slug", e.Slug, r.Slug))
			continue
		}
		seen[r.Slug] = true

		line := r.TopoLine
		if err := topo.Validate(line); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", e.Slug, r.Slug, err))
			line = nil
		}
		if line == nil {
			line = domain.TopoLine{}
		}
		out = append(out, domain.Route{
			CragID:      cragID,
			Slug:        r.Slug,
			Name:        r.Name,
			Grade:       r.Grade,
			Description: r.Description,
			Photo:       r.Photo,
			TopoLine:    line,
		})
	}
	return out, errors.Join(errs...)
}
