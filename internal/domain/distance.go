package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultOriginSubRegion is the sub-region where the outbreak was first reported.
const DefaultOriginSubRegion = "Hubei"

// OriginCoordinates returns the coordinates of the first row whose SubRegion
// matches subRegion.
func OriginCoordinates(rows []Observation, subRegion string) (Coordinates, error) {
	for i := range rows {
		if rows[i].Location.SubRegion == subRegion {
			return rows[i].Coordinates, nil
		}
	}
	return Coordinates{}, fmt.Errorf("%w: sub-region %q", ErrOriginNotFound, subRegion)
}

// GreatCircleKm is the haversine distance between a and b in kilometers on
// a sphere with the WGS-84 equatorial radius. It is a spherical approximation
// of the ellipsoidal geodesic and can differ from it by up to about 0.5%,
// most along meridians.
func GreatCircleKm(a, b Coordinates) float64 {
	return geo.DistanceHaversine(a.point(), b.point()) / 1000
}

func (c Coordinates) point() orb.Point { return orb.Point{c.Long, c.Lat} }

// AddDistanceToOrigin sets DistanceToOrigin on copies of rows.
func AddDistanceToOrigin(rows []Observation, origin Coordinates) []Observation {
	out := CloneAll(rows)
	for i := range out {
		out[i].DistanceToOrigin = GreatCircleKm(out[i].Coordinates, origin)
	}
	return out
}
