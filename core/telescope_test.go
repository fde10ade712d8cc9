package core

import (
	"errors"
	"testing"
	"time"
)

func testTelescope(code string) *Telescope {
	return &Telescope{
		Code: code,
		Name: "Station " + code,
		X:    3822846.0, Y: 153802.0, Z: 5086285.0,
		Diameter: 32,
		SEFD:     320,
		IsActive: true,
	}
}

// ISS TLE, used only as a syntactically valid orbit.
const (
	tleLine1 = "1 25544U 98067A   24021.52784639  .00016717  00000-0  30777-3 0  9994"
	tleLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49560532430291"
)

func TestTelescopeGroundPosition(t *testing.T) {
	tel := testTelescope("EF")
	pos, err := tel.PositionAt(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PositionAt: %v", err)
	}
	if pos.X != tel.X || pos.Y != tel.Y || pos.Z != tel.Z {
		t.Fatalf("ground position = %+v, want station coordinates", pos)
	}
	if tel.IsOrbital() {
		t.Fatal("ground telescope reported as orbital")
	}
}

func TestTelescopeOrbitalPosition(t *testing.T) {
	tel := testTelescope("RA")
	tel.TLELine1 = tleLine1
	tel.TLELine2 = tleLine2
	if !tel.IsOrbital() {
		t.Fatal("telescope with TLE not reported as orbital")
	}

	pos, err := tel.PositionAt(time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PositionAt: %v", err)
	}
	// LEO altitude: geocentric distance between Earth radius and ~8000 km.
	r := pos.Norm()
	if r < 6.4e6 || r > 8.0e6 {
		t.Fatalf("orbital radius = %v m, outside LEO range", r)
	}
}

func TestTelescopeValidate(t *testing.T) {
	if err := testTelescope("EF").Validate(); err != nil {
		t.Fatalf("valid telescope rejected: %v", err)
	}

	bad := testTelescope("EF")
	bad.Diameter = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("zero diameter accepted")
	}

	bad = testTelescope("EF")
	bad.TLELine1 = tleLine1
	if err := bad.Validate(); err == nil {
		t.Fatal("unpaired TLE accepted")
	}

	if err := (&Telescope{Diameter: 1}).Validate(); err == nil {
		t.Fatal("empty code accepted")
	}
}

func TestTelescopesDuplicateCode(t *testing.T) {
	c := NewTelescopes()
	if err := c.Add(testTelescope("EF")); err != nil {
		t.Fatalf("first add: %v", err)
	}
	other := testTelescope("EF")
	other.Name = "Different name, same code"
	if err := c.Add(other); !errors.Is(err, ErrDuplicateTelescope) {
		t.Fatalf("duplicate add error = %v, want ErrDuplicateTelescope", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d after rejected add, want 1", c.Len())
	}
}

func TestTelescopesRemoveShiftsPositions(t *testing.T) {
	c := NewTelescopes()
	_ = c.Add(testTelescope("EF"))
	_ = c.Add(testTelescope("WB"))
	_ = c.Add(testTelescope("JB"))

	if err := c.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, _ := c.At(1)
	if got.Code != "JB" {
		t.Fatalf("after removal At(1) = %q, want JB", got.Code)
	}
	if err := c.Remove(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Remove(5) error = %v, want ErrIndexOutOfRange", err)
	}
}
