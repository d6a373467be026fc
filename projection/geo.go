package projection

import (
	"fmt"

	"github.com/pdok/mapstream/typedgeom"
)

type Type string

const (
	Geographic           Type = "geographic"
	Mercator             Type = "mercator"
	AzimuthalEqualArea   Type = "azimuthal-equal-area"
	AzimuthalEquidistant Type = "azimuthal-equidistant"
	ConicConformal       Type = "conic-conformal"
	ConicEqualArea       Type = "conic-equal-area"
)

// Types lists every supported geographic projection.
var Types = []Type{Geographic, Mercator, AzimuthalEqualArea, AzimuthalEquidistant, ConicConformal, ConicEqualArea}

// GeoProjection turns longitude/latitude into a plane and back.
type GeoProjection interface {
	Transform[typedgeom.LonLat, typedgeom.Generic]
	Type() Type
	// ValidRect is the domain on which Project is defined and Invert undoes it.
	ValidRect() typedgeom.Rect[typedgeom.LonLat]
	// InDomain reports whether Invert is defined at p.
	InDomain(p typedgeom.Vec[typedgeom.Generic]) bool
}

// New returns the projection of type t with its default parameters.
// The conic projections use the standard parallels 0 and 60 degrees north.
func New(t Type) (GeoProjection, error) {
	switch t {
	case Geographic:
		return geographic{}, nil
	case Mercator:
		return mercator{}, nil
	case AzimuthalEqualArea:
		return NewAzimuthalEqualArea(), nil
	case AzimuthalEquidistant:
		return NewAzimuthalEquidistant(), nil
	case ConicConformal:
		return NewConicConformal(0, 60), nil
	case ConicEqualArea:
		return NewConicEqualArea(0, 60), nil
	default:
		return nil, fmt.Errorf(`unknown projection type %q`, t)
	}
}

// NaNError is the panic value of a projection that produced a non-finite point.
type NaNError struct {
	Projection string
	Input      [2]float64
	Output     [2]float64
}

func (e NaNError) Error() string {
	return fmt.Sprintf(`%v: non-finite result %v for %v`, e.Projection, e.Output, e.Input)
}

func safe[In, Out any](name string, in typedgeom.Vec[In], out typedgeom.Vec[Out]) typedgeom.Vec[Out] {
	if !out.IsFinite() {
		panic(NaNError{Projection: name, Input: in, Output: out})
	}
	return out
}
