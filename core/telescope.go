package core

import (
	"encoding/json"
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Telescope is a single observing station. The short code is the
// identity key within a Telescopes collection.
//
// A ground telescope sits at a fixed ECEF position. An orbital
// telescope (space VLBI) carries a TLE pair instead and is propagated
// with SGP4 when a position is needed.
type Telescope struct {
	Code string `json:"code"`
	Name string `json:"name"`

	// Station position in ECEF metres, and velocity in m/s. For an
	// orbital telescope these hold the last propagated position.
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	VZ float64 `json:"vz"`

	// Diameter in metres and SEFD (system equivalent flux density) in Jy.
	Diameter float64 `json:"diameter"`
	SEFD     float64 `json:"sefd,omitempty"`

	TLELine1 string `json:"tle_line1,omitempty"`
	TLELine2 string `json:"tle_line2,omitempty"`

	IsActive bool `json:"isactive"`
}

// IsOrbital reports whether the telescope is a space telescope driven
// by a TLE rather than a fixed ground station.
func (t *Telescope) IsOrbital() bool {
	return t.TLELine1 != "" && t.TLELine2 != ""
}

// PositionAt returns the telescope position in ECEF metres at time at.
// Ground telescopes return their fixed station coordinates; orbital
// telescopes are propagated from the TLE with SGP4.
func (t *Telescope) PositionAt(at time.Time) (Vec3, error) {
	if !t.IsOrbital() {
		return Vec3{X: t.X, Y: t.Y, Z: t.Z}, nil
	}

	sat := satellite.TLEToSat(t.TLELine1, t.TLELine2, satellite.GravityWGS72)
	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	// go-satellite works in kilometres; the model stores metres.
	const kmToM = 1000.0
	return Vec3{X: posECEF.X * kmToM, Y: posECEF.Y * kmToM, Z: posECEF.Z * kmToM}, nil
}

// Validate checks the telescope definition.
func (t *Telescope) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("telescope has empty code")
	}
	if t.Diameter <= 0 {
		return fmt.Errorf("telescope %q: diameter must be positive, got %v", t.Code, t.Diameter)
	}
	if t.SEFD < 0 {
		return fmt.Errorf("telescope %q: SEFD must be non-negative, got %v", t.Code, t.SEFD)
	}
	if (t.TLELine1 == "") != (t.TLELine2 == "") {
		return fmt.Errorf("telescope %q: TLE lines must be provided as a pair", t.Code)
	}
	return nil
}

// Telescopes is an ordered, index-addressed collection of Telescope
// entries with uniqueness by station code.
type Telescopes struct {
	data []*Telescope
}

// NewTelescopes creates an empty collection.
func NewTelescopes() *Telescopes {
	return &Telescopes{}
}

// Add appends a telescope, rejecting duplicate station codes.
func (c *Telescopes) Add(t *Telescope) error {
	if t == nil {
		return fmt.Errorf("%w: nil telescope", ErrInvalidArgument)
	}
	for _, existing := range c.data {
		if existing.Code == t.Code {
			return fmt.Errorf("%w: %q", ErrDuplicateTelescope, t.Code)
		}
	}
	c.data = append(c.data, t)
	return nil
}

// insertAt places t at position i. Structural inserts must go through
// Observation so scan indices are rewritten; hence unexported.
func (c *Telescopes) insertAt(t *Telescope, i int) error {
	if t == nil {
		return fmt.Errorf("%w: nil telescope", ErrInvalidArgument)
	}
	if i < 0 || i > len(c.data) {
		return fmt.Errorf("%w: telescope index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data, nil)
	copy(c.data[i+1:], c.data[i:])
	c.data[i] = t
	return nil
}

// Remove deletes the telescope at position i. When the collection is
// owned by an Observation, use Observation.RemoveTelescope so scan
// references are repaired.
func (c *Telescopes) Remove(i int) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: telescope index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data[:i], c.data[i+1:]...)
	return nil
}

// At returns the telescope at position i.
func (c *Telescopes) At(i int) (*Telescope, error) {
	if i < 0 || i >= len(c.data) {
		return nil, fmt.Errorf("%w: telescope index %d", ErrIndexOutOfRange, i)
	}
	return c.data[i], nil
}

// Len returns the number of telescopes.
func (c *Telescopes) Len() int { return len(c.data) }

// All returns the telescopes in collection order.
func (c *Telescopes) All() []*Telescope {
	out := make([]*Telescope, len(c.data))
	copy(out, c.data)
	return out
}

// Active returns the active telescopes in original relative order.
func (c *Telescopes) Active() []*Telescope {
	var out []*Telescope
	for _, t := range c.data {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}

// Inactive returns the inactive telescopes in original relative order.
func (c *Telescopes) Inactive() []*Telescope {
	var out []*Telescope
	for _, t := range c.data {
		if !t.IsActive {
			out = append(out, t)
		}
	}
	return out
}

// SetActive flips the active flag of the telescope at position i. Use
// Observation.SetTelescopeActive when the collection is owned.
func (c *Telescopes) SetActive(i int, active bool) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: telescope index %d", ErrIndexOutOfRange, i)
	}
	c.data[i].IsActive = active
	return nil
}

// ActivateAll marks every telescope active; empty collections error.
func (c *Telescopes) ActivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no telescopes to activate", ErrEmptyCollection)
	}
	for _, t := range c.data {
		t.IsActive = true
	}
	return nil
}

// DeactivateAll marks every telescope inactive; empty collections error.
func (c *Telescopes) DeactivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no telescopes to deactivate", ErrEmptyCollection)
	}
	for _, t := range c.data {
		t.IsActive = false
	}
	return nil
}

// Clear removes all telescopes.
func (c *Telescopes) Clear() { c.data = nil }

type telescopesJSON struct {
	Data []*Telescope `json:"data"`
}

// MarshalJSON serializes the collection as {"data": [...]}.
func (c *Telescopes) MarshalJSON() ([]byte, error) {
	return json.Marshal(telescopesJSON{Data: c.data})
}

// UnmarshalJSON restores a collection serialized by MarshalJSON.
func (c *Telescopes) UnmarshalJSON(b []byte) error {
	var payload telescopesJSON
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("telescopes: decode failed: %w", err)
	}
	c.data = payload.Data
	return nil
}
