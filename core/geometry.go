package core

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// MinElevationDeg is the lowest source elevation (degrees above the
// local horizon) at which a ground telescope is considered able to
// observe. Below this the atmosphere and sidelobes make the baseline
// useless for VLBI.
const MinElevationDeg = 5.0

// Vec3 is an ECEF-style vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// SourceDirectionECEF converts a celestial position (RA/Dec in degrees)
// into a unit direction vector in the Earth-fixed frame at time t.
//
// The source is at infinity, so only the direction matters: build the
// ECI unit vector from RA/Dec, then rotate it into ECEF by the Greenwich
// sidereal angle for t.
func SourceDirectionECEF(raDeg, decDeg float64, t time.Time) Vec3 {
	ra := raDeg * math.Pi / 180.0
	dec := decDeg * math.Pi / 180.0

	// ECI unit vector toward the source.
	x := math.Cos(dec) * math.Cos(ra)
	y := math.Cos(dec) * math.Sin(ra)
	z := math.Sin(dec)

	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)

	// Standard ECI -> ECEF rotation about the Z axis by GMST.
	sin, cos := math.Sin(gmst), math.Cos(gmst)
	return Vec3{
		X: x*cos + y*sin,
		Y: -x*sin + y*cos,
		Z: z,
	}
}

// ElevationOfDirection returns the elevation angle, in degrees, of a
// source at infinity in direction dir as seen from an observer at the
// given ECEF position. 0° = geometric horizon, 90° = overhead.
func ElevationOfDirection(observer Vec3, dir Vec3) float64 {
	r := observer.Norm()
	if r == 0 {
		return 90
	}
	d := dir.Norm()
	if d == 0 {
		return 90
	}

	// Local zenith at the observer is its normalised position vector.
	zenith := Vec3{X: observer.X / r, Y: observer.Y / r, Z: observer.Z / r}

	cosGamma := dir.Dot(zenith) / d
	if cosGamma > 1 {
		cosGamma = 1
	} else if cosGamma < -1 {
		cosGamma = -1
	}
	gammaDeg := math.Acos(cosGamma) * 180.0 / math.Pi

	// Elevation is measured from the local horizon (90° − zenith angle).
	return 90.0 - gammaDeg
}
