package export

import "math"

// arc is the part of a circle that can reach the surface
type arc struct {
	from, to float64 // angles in radians
	inner    float64 // radius below which the sector cannot reach the surface
	full     bool
}

// visibleArc limits a circle centered at (cx, cy) with radius r to the part
// that can touch a w x h surface. pad is half the stroke width. covers is
// true when the circle encloses the surface and its outline lies outside
// it; ok is false when the circle lies wholly off the surface.
func visibleArc(cx, cy, r, pad float64, w, h int) (a arc, covers, ok bool) {
	sx, sy := float64(w)/2, float64(h)/2
	// every visible point lies within rs of the surface center
	rs := math.Hypot(float64(w), float64(h))/2 + pad
	d := math.Hypot(sx-cx, sy-cy)

	switch {
	case d-rs > r+pad:
		return arc{}, false, false
	case r-pad > d+rs:
		return arc{}, true, true
	case d <= rs:
		return arc{from: 0, to: 2 * math.Pi, full: true}, false, true
	}

	toward := math.Atan2(sy-cy, sx-cx)
	spread := math.Asin(rs / d)
	return arc{
		from:  toward - spread,
		to:    toward + spread,
		inner: math.Min(d-rs, r),
	}, false, true
}
