package projection

import (
	"math"

	"github.com/pdok/mapstream/mathhelp"
	"github.com/pdok/mapstream/typedgeom"
)

// poleEpsilon keeps latitudes away from the pole where the cone radius diverges, in radians.
const poleEpsilon = 1e-6

// coneEpsilon is the smallest cone constant that is not treated as a cylinder.
const coneEpsilon = 1e-9

var conicRect = typedgeom.NewRect[typedgeom.LonLat](-180, -MaxMercatorLatitude, 180, MaxMercatorLatitude)

func tany(y float64) float64 {
	return math.Tan((math.Pi/2 + y) / 2)
}

// invertAngle recovers n·longitude from the position relative to the cone apex.
func invertAngle(x, fy, n float64) float64 {
	l := math.Atan2(x, math.Abs(fy)) * mathhelp.Sign(fy)
	if fy*n < 0 {
		l -= math.Pi * mathhelp.Sign(x) * mathhelp.Sign(fy)
	}
	return l
}

type conicConformal struct {
	n, f float64
}

// NewConicConformal returns the Lambert conformal conic projection with standard parallels y0 and y1 in degrees.
// Parallels that make the cone degenerate into a cylinder give mercator.
func NewConicConformal(y0, y1 float64) GeoProjection {
	r0 := mathhelp.ToRadians(y0)
	r1 := mathhelp.ToRadians(y1)
	cy0 := math.Cos(r0)
	var n float64
	if r0 == r1 {
		n = math.Sin(r0)
	} else {
		n = math.Log(cy0/math.Cos(r1)) / math.Log(tany(r1)/tany(r0))
	}
	if math.Abs(n) < coneEpsilon {
		return mercator{}
	}
	return conicConformal{n: n, f: cy0 * math.Pow(tany(r0), n) / n}
}

func (c conicConformal) Type() Type { return ConicConformal }

func (c conicConformal) ValidRect() typedgeom.Rect[typedgeom.LonLat] { return conicRect }

func (c conicConformal) InDomain(plane) bool { return true }

func (c conicConformal) Project(p lonLat) plane {
	q := clampTo(fullRect, p)
	x := mathhelp.ToRadians(q[0])
	y := mathhelp.ToRadians(q[1])
	if c.f > 0 {
		y = math.Max(y, -math.Pi/2+poleEpsilon)
	} else {
		y = math.Min(y, math.Pi/2-poleEpsilon)
	}
	r := c.f / math.Pow(tany(y), c.n)
	return safe("conic-conformal", p, plane{r * math.Sin(c.n*x), c.f - r*math.Cos(c.n*x)})
}

func (c conicConformal) Invert(p plane) lonLat {
	fy := c.f - p[1]
	r := mathhelp.Sign(c.n) * math.Hypot(p[0], fy)
	lon := invertAngle(p[0], fy, c.n) / c.n
	lat := 2*math.Atan(math.Pow(c.f/r, 1/c.n)) - math.Pi/2
	return safe("conic-conformal", p, lonLat{mathhelp.ToDegrees(lon), mathhelp.ToDegrees(lat)})
}

type conicEqualArea struct {
	n, c, r0 float64
}

// NewConicEqualArea returns the Albers equal-area conic projection with standard parallels y0 and y1 in degrees.
// Parallels symmetric around the equator are not supported, they would make the cone a cylinder.
func NewConicEqualArea(y0, y1 float64) GeoProjection {
	sy0 := math.Sin(mathhelp.ToRadians(y0))
	n := (sy0 + math.Sin(mathhelp.ToRadians(y1))) / 2
	if math.Abs(n) < coneEpsilon {
		panic("conic equal-area projection needs standard parallels that are not symmetric around the equator")
	}
	c := 1 + sy0*(2*n-sy0)
	return conicEqualArea{n: n, c: c, r0: math.Sqrt(c) / n}
}

func (a conicEqualArea) Type() Type { return ConicEqualArea }

func (a conicEqualArea) ValidRect() typedgeom.Rect[typedgeom.LonLat] { return conicRect }

func (a conicEqualArea) sinLat(p plane) float64 {
	r0y := a.r0 - p[1]
	return (a.c - (p[0]*p[0]+r0y*r0y)*a.n*a.n) / (2 * a.n)
}

func (a conicEqualArea) InDomain(p plane) bool {
	return math.Abs(a.sinLat(p)) <= 1
}

func (a conicEqualArea) Project(p lonLat) plane {
	q := clampTo(fullRect, p)
	x := mathhelp.ToRadians(q[0])
	y := mathhelp.Clamp(mathhelp.ToRadians(q[1]), -math.Pi/2+poleEpsilon, math.Pi/2-poleEpsilon)
	r := math.Sqrt(a.c-2*a.n*math.Sin(y)) / a.n
	return safe("conic-equal-area", p, plane{r * math.Sin(x*a.n), a.r0 - r*math.Cos(x*a.n)})
}

func (a conicEqualArea) Invert(p plane) lonLat {
	lon := invertAngle(p[0], a.r0-p[1], a.n) / a.n
	lat := math.Asin(a.sinLat(p))
	return safe("conic-equal-area", p, lonLat{mathhelp.ToDegrees(lon), mathhelp.ToDegrees(lat)})
}
