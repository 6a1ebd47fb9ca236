// Package geometry produces the map shapes the dashboard renders: a
// fixed-ground-area polygon ring per record and the angular offsets that
// fan out co-located pins.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// EarthRadiusMeters is the WGS-84 equatorial radius.
	EarthRadiusMeters = 6378137.0

	// DefaultAreaSquareMeters is the target ground area of a record
	// polygon: 1 km² regardless of zoom.
	DefaultAreaSquareMeters = 1_000_000.0

	// DefaultSides makes record polygons hexagons.
	DefaultSides = 6

	// clusterOffsetScale converts the pin offset into coordinate-space
	// degrees small enough that fanned-out pins stay visually adjacent.
	clusterOffsetScale = 0.00005
)

// HexagonRing returns the default 1 km² hexagon around a coordinate.
func HexagonRing(lon, lat float64) orb.Ring {
	return PolygonRing(lon, lat, DefaultAreaSquareMeters, DefaultSides, 1.0)
}

// PolygonRing builds a closed regular-polygon ring of the given ground area
// centered on (lon, lat). The circumscribing radius solves
// area = (n/4)·r²·cot(π/n); for hexagons the side equals the radius, so this
// reduces to the familiar r = sqrt(area / (3√3/2)). Longitude deltas carry a
// 1/cos(lat) correction so the ring stays visually regular away from the
// equator. Valid for latitudes in [-85, 85]; outside that band the
// correction blows up and the result is undefined.
func PolygonRing(lon, lat, areaSquareMeters float64, sides int, sizeMultiplier float64) orb.Ring {
	n := float64(sides)
	radiusMeters := math.Sqrt(areaSquareMeters/(n/4/math.Tan(math.Pi/n))) * sizeMultiplier
	radiusRadians := radiusMeters / EarthRadiusMeters

	ring := make(orb.Ring, 0, sides+1)
	for i := 0; i < sides; i++ {
		angle := float64(i) * 2 * math.Pi / n
		dLat := radiusRadians * math.Sin(angle)
		dLon := radiusRadians * math.Cos(angle) / math.Cos(lat*math.Pi/180)
		ring = append(ring, orb.Point{
			lon + dLon*180/math.Pi,
			lat + dLat*180/math.Pi,
		})
	}
	ring = append(ring, ring[0])
	return ring
}

// ClusterOffset places the index-th member of a co-located pin group on a
// small circle around the shared coordinate. Six evenly spaced slots;
// members beyond the sixth reuse angles, which is accepted degradation for
// groups that large.
func ClusterOffset(index int, baseRadius float64) (dx, dy float64) {
	angle := float64(index%6) * (2 * math.Pi / 6)
	radius := baseRadius * 1.5
	return math.Cos(angle) * radius * clusterOffsetScale,
		math.Sin(angle) * radius * clusterOffsetScale
}

// Centroid is the vertex mean of a ring, closing vertex included — the same
// center the inflation scales about, so inflate/restore round-trips exactly.
func Centroid(ring orb.Ring) orb.Point {
	if len(ring) == 0 {
		return orb.Point{}
	}
	var sumLon, sumLat float64
	for _, p := range ring {
		sumLon += p[0]
		sumLat += p[1]
	}
	n := float64(len(ring))
	return orb.Point{sumLon / n, sumLat / n}
}

// InflateRing scales a ring about its centroid. Used for the transient 3×
// highlight inflation; restore regenerates from scratch rather than scaling
// back down.
func InflateRing(ring orb.Ring, factor float64) orb.Ring {
	center := Centroid(ring)
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		out[i] = orb.Point{
			center[0] + (p[0]-center[0])*factor,
			center[1] + (p[1]-center[1])*factor,
		}
	}
	return out
}
