package projection

import (
	"math"

	"github.com/pdok/mapstream/mathhelp"
	"github.com/pdok/mapstream/typedgeom"
)

// antipodeEpsilon keeps longitudes away from the antipode of the projection center, in degrees.
const antipodeEpsilon = 1e-3

var azimuthalRect = typedgeom.NewRect[typedgeom.LonLat](-180+antipodeEpsilon, -90, 180-antipodeEpsilon, 90)

// azimuthal projections centered on (0, 0) differ only in their radial scale.
type azimuthal struct {
	typ Type
	// scale is the radial factor as a function of cos(x)·cos(y)
	scale func(cxcy float64) float64
	// angle is the angular distance from the center of a point at plane distance z
	angle func(z float64) float64
	// maxZ is the plane distance of the antipode
	maxZ float64
}

func NewAzimuthalEqualArea() GeoProjection {
	return azimuthal{
		typ: AzimuthalEqualArea,
		scale: func(cxcy float64) float64 {
			return math.Sqrt(2 / (1 + cxcy))
		},
		angle: func(z float64) float64 {
			return 2 * math.Asin(z/2)
		},
		maxZ: 2,
	}
}

func NewAzimuthalEquidistant() GeoProjection {
	return azimuthal{
		typ: AzimuthalEquidistant,
		scale: func(cxcy float64) float64 {
			c := math.Acos(mathhelp.Clamp(cxcy, -1, 1))
			if c == 0 {
				return 1
			}
			return c / math.Sin(c)
		},
		angle: func(z float64) float64 {
			return z
		},
		maxZ: math.Pi,
	}
}

func (a azimuthal) Type() Type { return a.typ }

func (a azimuthal) ValidRect() typedgeom.Rect[typedgeom.LonLat] { return azimuthalRect }

func (a azimuthal) InDomain(p plane) bool {
	return math.Hypot(p[0], p[1]) <= a.maxZ
}

func (a azimuthal) Project(p lonLat) plane {
	c := clampTo(azimuthalRect, p)
	x := mathhelp.ToRadians(c[0])
	y := mathhelp.ToRadians(c[1])
	cx := math.Cos(x)
	cy := math.Cos(y)
	k := a.scale(cx * cy)
	return safe(string(a.typ), p, plane{k * cy * math.Sin(x), k * math.Sin(y)})
}

func (a azimuthal) Invert(p plane) lonLat {
	z := math.Hypot(p[0], p[1])
	c := a.angle(z)
	sc := math.Sin(c)
	cc := math.Cos(c)
	lon := math.Atan2(p[0]*sc, z*cc)
	lat := 0.
	if z != 0 {
		lat = math.Asin(p[1] * sc / z)
	}
	return safe(string(a.typ), p, lonLat{mathhelp.ToDegrees(lon), mathhelp.ToDegrees(lat)})
}
