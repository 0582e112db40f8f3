package topo

import (
	"fmt"
	"math"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// MaxPoints caps how many control points a single line may carry.
const MaxPoints = 64

// Validate checks a topo line before it is stored. An empty line is valid and
// clears the annotation; a single point is kept but never rendered.
func Validate(line domain.TopoLine) error {
	if len(line) > MaxPoints {
		return fmt.Errorf("%w: %d points, max %d", domain.ErrInvalidTopo, len(line), MaxPoints)
	}
	for i, p := range line {
		if !inUnit(p.X) || !inUnit(p.Y) {
			return fmt.Errorf("%w: point %d (%v, %v) outside [0,1]", domain.ErrInvalidTopo, i, p.X, p.Y)
		}
	}
	return nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}
