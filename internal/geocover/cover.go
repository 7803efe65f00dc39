// Package geocover derives the set of fixed-precision geohash cells whose
// bounding rectangles intersect a planar geometry.
package geocover

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

// Precision is the fixed geohash precision used system-wide (~5km cells).
const Precision uint = 5

// Cover walks the bounding rectangle of geom at a raster step matching
// precision, returning every geohash whose decoded rectangle intersects
// geom. Returns the empty set for an empty geometry.
func Cover(geom orb.Geometry, precision uint) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	if geom == nil {
		return result, nil
	}

	bound := geom.Bound()
	if bound.IsEmpty() {
		return result, nil
	}

	centerLat := (bound.Min[1] + bound.Max[1]) / 2
	centerLon := (bound.Min[0] + bound.Max[0]) / 2
	sample := geohash.EncodeWithPrecision(centerLat, centerLon, precision)
	box := geohash.BoundingBox(sample)
	dLat := box.MaxLat - box.MinLat
	dLon := box.MaxLng - box.MinLng
	if dLat <= 0 || dLon <= 0 {
		return result, engineerr.New(engineerr.InvalidArgument, "geocover: degenerate raster step")
	}

	minLat, maxLat := bound.Min[1], bound.Max[1]
	minLon, maxLon := bound.Min[0], bound.Max[0]

	for lat := minLat; lat <= maxLat+1e-12; lat += dLat {
		for lon := minLon; lon <= maxLon+1e-12; lon += dLon {
			cellHash := geohash.EncodeWithPrecision(lat, lon, precision)
			cellBox := geohash.BoundingBox(cellHash)
			cellRect := orb.Bound{
				Min: orb.Point{cellBox.MinLng, cellBox.MinLat},
				Max: orb.Point{cellBox.MaxLng, cellBox.MaxLat},
			}
			if intersects(cellRect, geom) {
				result[cellHash] = struct{}{}
			}
		}
	}
	return result, nil
}

func intersects(rect orb.Bound, geom orb.Geometry) bool {
	if !rect.Intersects(geom.Bound()) {
		return false
	}
	switch g := geom.(type) {
	case orb.Polygon:
		return rectIntersectsPolygon(rect, g)
	case orb.MultiPolygon:
		for _, p := range g {
			if rectIntersectsPolygon(rect, p) {
				return true
			}
		}
		return false
	default:
		// No exact primitive for other geometry types; bound-overlap is the
		// coarse cover's best available test.
		return true
	}
}

func rectIntersectsPolygon(rect orb.Bound, poly orb.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	outer := poly[0]

	rectCorners := []orb.Point{
		{rect.Min[0], rect.Min[1]},
		{rect.Max[0], rect.Min[1]},
		{rect.Max[0], rect.Max[1]},
		{rect.Min[0], rect.Max[1]},
	}
	for _, c := range rectCorners {
		if pointInRing(c, outer) {
			return true
		}
	}
	for _, v := range outer {
		if rect.Contains(v) {
			return true
		}
	}
	rectEdges := [][2]orb.Point{
		{rectCorners[0], rectCorners[1]},
		{rectCorners[1], rectCorners[2]},
		{rectCorners[2], rectCorners[3]},
		{rectCorners[3], rectCorners[0]},
	}
	for i := 0; i < len(outer)-1; i++ {
		a, b := outer[i], outer[i+1]
		for _, e := range rectEdges {
			if segmentsIntersect(a, b, e[0], e[1]) {
				return true
			}
		}
	}
	return false
}

func pointInRing(p orb.Point, ring orb.Ring) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if ((yi > p[1]) != (yj > p[1])) &&
			(p[0] < (xj-xi)*(p[1]-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}

func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := cross(p4, p3, p1)
	d2 := cross(p4, p3, p2)
	d3 := cross(p2, p1, p3)
	d4 := cross(p2, p1, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// ContainsPoint reports whether (lon, lat) falls inside geom exactly,
// used for per-row refinement after coarse geohash pruning.
func ContainsPoint(geom orb.Geometry, lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return false
	}
	p := orb.Point{lon, lat}
	switch g := geom.(type) {
	case orb.Polygon:
		return polygonContains(g, p)
	case orb.MultiPolygon:
		for _, poly := range g {
			if polygonContains(poly, p) {
				return true
			}
		}
		return false
	default:
		return g.Bound().Contains(p)
	}
}

func polygonContains(poly orb.Polygon, p orb.Point) bool {
	if len(poly) == 0 {
		return false
	}
	if !pointInRing(p, poly[0]) {
		return false
	}
	for _, hole := range poly[1:] {
		if pointInRing(p, hole) {
			return false
		}
	}
	return true
}
