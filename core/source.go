package core

import (
	"encoding/json"
	"fmt"
	"math"
)

// Source is a celestial radio source. The B1950 name is the identity
// key within a Sources collection; J2000 and alternative names are
// informational.
type Source struct {
	Name      string `json:"name"`
	NameJ2000 string `json:"j2000_name,omitempty"`
	AltName   string `json:"alt_name,omitempty"`

	// Sexagesimal right ascension (hours, minutes, seconds).
	RAh float64 `json:"ra_h"`
	RAm float64 `json:"ra_m"`
	RAs float64 `json:"ra_s"`

	// Sexagesimal declination. DecD carries the sign; -0° is preserved
	// as a negative zero so low-southern sources round-trip correctly.
	DecD float64 `json:"de_d"`
	DecM float64 `json:"de_m"`
	DecS float64 `json:"de_s"`

	IsActive bool `json:"isactive"`
}

// RADegrees returns the right ascension in decimal degrees.
func (s *Source) RADegrees() float64 {
	return (s.RAh + s.RAm/60.0 + s.RAs/3600.0) * 15.0
}

// DecDegrees returns the declination in decimal degrees.
func (s *Source) DecDegrees() float64 {
	deg := math.Abs(s.DecD) + s.DecM/60.0 + s.DecS/3600.0
	if math.Signbit(s.DecD) {
		return -deg
	}
	return deg
}

// Validate checks the coordinate components for physical plausibility.
func (s *Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source has empty name")
	}
	if s.RAh < 0 || s.RAh >= 24 {
		return fmt.Errorf("source %q: RA hours %v out of [0,24)", s.Name, s.RAh)
	}
	if s.RAm < 0 || s.RAm >= 60 || s.RAs < 0 || s.RAs >= 60 {
		return fmt.Errorf("source %q: RA minutes/seconds out of [0,60)", s.Name)
	}
	if s.DecM < 0 || s.DecM >= 60 || s.DecS < 0 || s.DecS >= 60 {
		return fmt.Errorf("source %q: Dec minutes/seconds out of [0,60)", s.Name)
	}
	if dec := s.DecDegrees(); dec < -90 || dec > 90 {
		return fmt.Errorf("source %q: declination %v out of [-90,90]", s.Name, dec)
	}
	return nil
}

// Sources is an ordered, index-addressed collection of Source entries.
// Positions are stable until a structural mutation (insert/remove)
// renumbers the tail of the collection.
type Sources struct {
	data []*Source
}

// NewSources creates an empty collection.
func NewSources() *Sources {
	return &Sources{}
}

// Add appends a source. The B1950 name is the identity key: a second
// source with the same name is rejected and the collection is left
// unchanged.
func (c *Sources) Add(s *Source) error {
	if s == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	for _, existing := range c.data {
		if existing.Name == s.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateSource, s.Name)
		}
	}
	c.data = append(c.data, s)
	return nil
}

// insertAt places s at position i, shifting later entries right.
// Structural inserts must go through Observation so scan indices are
// rewritten; hence unexported.
func (c *Sources) insertAt(s *Source, i int) error {
	if s == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if i < 0 || i > len(c.data) {
		return fmt.Errorf("%w: source index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data, nil)
	copy(c.data[i+1:], c.data[i:])
	c.data[i] = s
	return nil
}

// Remove deletes the source at position i, shifting later positions
// down by one. When the collection is owned by an Observation, use
// Observation.RemoveSource so scan references are repaired.
func (c *Sources) Remove(i int) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: source index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data[:i], c.data[i+1:]...)
	return nil
}

// At returns the source at position i.
func (c *Sources) At(i int) (*Source, error) {
	if i < 0 || i >= len(c.data) {
		return nil, fmt.Errorf("%w: source index %d", ErrIndexOutOfRange, i)
	}
	return c.data[i], nil
}

// Len returns the number of sources.
func (c *Sources) Len() int { return len(c.data) }

// All returns the sources in collection order.
func (c *Sources) All() []*Source {
	out := make([]*Source, len(c.data))
	copy(out, c.data)
	return out
}

// Active returns the active sources in original relative order.
func (c *Sources) Active() []*Source {
	var out []*Source
	for _, s := range c.data {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// Inactive returns the inactive sources in original relative order.
func (c *Sources) Inactive() []*Source {
	var out []*Source
	for _, s := range c.data {
		if !s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// SetActive flips the active flag of the source at position i. When the
// collection is owned by an Observation, use Observation.SetSourceActive
// so scans referencing the position stay consistent.
func (c *Sources) SetActive(i int, active bool) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: source index %d", ErrIndexOutOfRange, i)
	}
	c.data[i].IsActive = active
	return nil
}

// ActivateAll marks every source active. An empty collection is an
// error, not a no-op: bulk toggles on nothing signal misconfiguration.
func (c *Sources) ActivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no sources to activate", ErrEmptyCollection)
	}
	for _, s := range c.data {
		s.IsActive = true
	}
	return nil
}

// DeactivateAll marks every source inactive.
func (c *Sources) DeactivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no sources to deactivate", ErrEmptyCollection)
	}
	for _, s := range c.data {
		s.IsActive = false
	}
	return nil
}

// Clear removes all sources.
func (c *Sources) Clear() { c.data = nil }

type sourcesJSON struct {
	Data []*Source `json:"data"`
}

// MarshalJSON serializes the collection as {"data": [...]}, preserving
// order and active flags.
func (c *Sources) MarshalJSON() ([]byte, error) {
	return json.Marshal(sourcesJSON{Data: c.data})
}

// UnmarshalJSON restores a collection serialized by MarshalJSON.
func (c *Sources) UnmarshalJSON(b []byte) error {
	var payload sourcesJSON
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("sources: decode failed: %w", err)
	}
	c.data = payload.Data
	return nil
}
