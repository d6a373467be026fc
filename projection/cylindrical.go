package projection

import (
	"math"

	"github.com/pdok/mapstream/mathhelp"
	"github.com/pdok/mapstream/typedgeom"
)

// MaxMercatorLatitude is the latitude at which the mercator plane becomes square.
const MaxMercatorLatitude = 85.0511287798

type lonLat = typedgeom.Vec[typedgeom.LonLat]
type plane = typedgeom.Vec[typedgeom.Generic]

var fullRect = typedgeom.NewRect[typedgeom.LonLat](-180, -90, 180, 90)

func clampTo(r typedgeom.Rect[typedgeom.LonLat], p lonLat) lonLat {
	return lonLat{mathhelp.Clamp(p[0], r.MinX(), r.MaxX()), mathhelp.Clamp(p[1], r.MinY(), r.MaxY())}
}

// geographic keeps degrees as they are.
type geographic struct{}

func (geographic) Type() Type { return Geographic }

func (geographic) ValidRect() typedgeom.Rect[typedgeom.LonLat] { return fullRect }

func (geographic) InDomain(plane) bool { return true }

func (g geographic) Project(p lonLat) plane {
	return safe("geographic", p, typedgeom.Reinterpret[typedgeom.Generic](clampTo(fullRect, p)))
}

func (g geographic) Invert(p plane) lonLat {
	return safe("geographic", p, typedgeom.Reinterpret[typedgeom.LonLat](p))
}

type mercator struct{}

var mercatorRect = typedgeom.NewRect[typedgeom.LonLat](-180, -MaxMercatorLatitude, 180, MaxMercatorLatitude)

func (mercator) Type() Type { return Mercator }

func (mercator) ValidRect() typedgeom.Rect[typedgeom.LonLat] { return mercatorRect }

func (mercator) InDomain(plane) bool { return true }

func (m mercator) Project(p lonLat) plane {
	c := clampTo(mercatorRect, p)
	x := mathhelp.ToRadians(c[0])
	y := math.Log(math.Tan(math.Pi/4 + mathhelp.ToRadians(c[1])/2))
	return safe("mercator", p, plane{x, y})
}

func (m mercator) Invert(p plane) lonLat {
	lon := mathhelp.ToDegrees(p[0])
	lat := mathhelp.ToDegrees(2*math.Atan(math.Exp(p[1])) - math.Pi/2)
	return safe("mercator", p, lonLat{lon, lat})
}
