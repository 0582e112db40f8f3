package topo

// flattenSteps is the number of chords used per cubic segment.
const flattenSteps = 32

// PathLength measures the drawn length of segs by flattening each curve.
func PathLength(segs []Segment) float64 {
	var total float64
	for _, s := range segs {
		if s.Straight {
			total += dist(s.From, s.To)
			continue
		}
		prev := s.From
		for i := 1; i <= flattenSteps; i++ {
			p := s.At(float64(i) / flattenSteps)
			total += dist(prev, p)
			prev = p
		}
	}
	return total
}

// At evaluates the segment at t in [0,1].
func (s Segment) At(t float64) Point {
	if s.Straight {
		return Point{X: s.From.X + (s.To.X-s.From.X)*t, Y: s.From.Y + (s.To.Y-s.From.Y)*t}
	}
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*s.From.X + b*s.C1.X + c*s.C2.X + d*s.To.X,
		Y: a*s.From.Y + b*s.C1.Y + c*s.C2.Y + d*s.To.Y,
	}
}
