package domain

// TopoPoint is one control point of a climbing line, in image-relative
// coordinates: x and y are fractions of the photo width and height, origin top-left.
type TopoPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TopoLine is the ordered path of a route drawn over its photo, usually bottom to top.
// It is stored and replaced as a whole.
type TopoLine []TopoPoint

// Annotated reports whether the line has enough points to be drawn.
func (l TopoLine) Annotated() bool {
	return len(l) >= 2
}

// Photo references the image a topo line is drawn on.
type Photo struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}
