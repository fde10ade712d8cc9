package core

import (
	"math"
	"testing"
	"time"
)

func TestSourceDirectionPolarIsZAxis(t *testing.T) {
	// A source at the celestial pole points along +Z in any Earth-fixed
	// frame, whatever the sidereal angle.
	for _, at := range []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 15, 13, 37, 42, 0, time.UTC),
	} {
		dir := SourceDirectionECEF(187.5, 90, at)
		if math.Abs(dir.Z-1) > 1e-9 {
			t.Fatalf("polar source Z = %v, want 1", dir.Z)
		}
		if math.Abs(dir.X) > 1e-9 || math.Abs(dir.Y) > 1e-9 {
			t.Fatalf("polar source X,Y = %v,%v, want 0,0", dir.X, dir.Y)
		}
	}
}

func TestSourceDirectionIsUnit(t *testing.T) {
	at := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	dir := SourceDirectionECEF(83.6, 22.0, at)
	if n := dir.Norm(); math.Abs(n-1) > 1e-9 {
		t.Fatalf("direction norm = %v, want 1", n)
	}
}

func TestElevationOfDirection(t *testing.T) {
	const earthR = 6371000.0
	up := Vec3{Z: 1}

	polar := Vec3{Z: earthR}
	if elev := ElevationOfDirection(polar, up); math.Abs(elev-90) > 1e-9 {
		t.Fatalf("overhead elevation = %v, want 90", elev)
	}

	equatorial := Vec3{X: earthR}
	if elev := ElevationOfDirection(equatorial, up); math.Abs(elev) > 1e-9 {
		t.Fatalf("horizon elevation = %v, want 0", elev)
	}

	antipodal := Vec3{Z: -earthR}
	if elev := ElevationOfDirection(antipodal, up); math.Abs(elev+90) > 1e-9 {
		t.Fatalf("nadir elevation = %v, want -90", elev)
	}
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{X: 3, Y: 4, Z: 0}
	if n := a.Norm(); n != 5 {
		t.Fatalf("Norm = %v, want 5", n)
	}
	b := a.Sub(Vec3{X: 1, Y: 1, Z: 1})
	if b != (Vec3{X: 2, Y: 3, Z: -1}) {
		t.Fatalf("Sub = %+v", b)
	}
	if d := a.Dot(Vec3{X: 1, Y: 2, Z: 3}); d != 11 {
		t.Fatalf("Dot = %v, want 11", d)
	}
}
