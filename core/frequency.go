package core

import (
	"encoding/json"
	"fmt"
)

// CMHzCm is the speed of light expressed in MHz·cm, used to convert
// between frequency and wavelength.
const CMHzCm = 29979.2458

// IF is an intermediate-frequency channel definition. The frequency
// value is the identity key within a Frequencies collection.
type IF struct {
	// Frequency and bandwidth in MHz.
	Frequency float64 `json:"frequency"`
	Bandwidth float64 `json:"bandwidth"`
	IsActive  bool    `json:"isactive"`
}

// NewIF builds a channel, rejecting negative frequency or bandwidth.
func NewIF(frequency, bandwidth float64) (*IF, error) {
	if frequency < 0 {
		return nil, fmt.Errorf("%w: frequency must be non-negative, got %v", ErrInvalidArgument, frequency)
	}
	if bandwidth < 0 {
		return nil, fmt.Errorf("%w: bandwidth must be non-negative, got %v", ErrInvalidArgument, bandwidth)
	}
	return &IF{Frequency: frequency, Bandwidth: bandwidth, IsActive: true}, nil
}

// Wavelength returns the wavelength in centimetres for the channel
// frequency. Zero frequency has no wavelength.
func (f *IF) Wavelength() (float64, error) {
	if f.Frequency == 0 {
		return 0, fmt.Errorf("%w: frequency is zero, wavelength undefined", ErrInvalidArgument)
	}
	return CMHzCm / f.Frequency, nil
}

// Validate checks the channel definition.
func (f *IF) Validate() error {
	if f.Frequency < 0 {
		return fmt.Errorf("IF: frequency must be non-negative, got %v", f.Frequency)
	}
	if f.Bandwidth < 0 {
		return fmt.Errorf("IF %v MHz: bandwidth must be non-negative, got %v", f.Frequency, f.Bandwidth)
	}
	return nil
}

// Frequencies is an ordered, index-addressed collection of IF channels
// with uniqueness by frequency value.
type Frequencies struct {
	data []*IF
}

// NewFrequencies creates an empty collection.
func NewFrequencies() *Frequencies {
	return &Frequencies{}
}

// Add appends a channel. A second channel with the same frequency value
// is rejected and the collection is left unchanged.
func (c *Frequencies) Add(f *IF) error {
	if f == nil {
		return fmt.Errorf("%w: nil IF", ErrInvalidArgument)
	}
	for _, existing := range c.data {
		if existing.Frequency == f.Frequency {
			return fmt.Errorf("%w: %v MHz", ErrDuplicateFrequency, f.Frequency)
		}
	}
	c.data = append(c.data, f)
	return nil
}

// insertAt places f at position i. Structural inserts must go through
// Observation so scan indices are rewritten; hence unexported.
func (c *Frequencies) insertAt(f *IF, i int) error {
	if f == nil {
		return fmt.Errorf("%w: nil IF", ErrInvalidArgument)
	}
	if i < 0 || i > len(c.data) {
		return fmt.Errorf("%w: frequency index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data, nil)
	copy(c.data[i+1:], c.data[i:])
	c.data[i] = f
	return nil
}

// Remove deletes the channel at position i. When the collection is
// owned by an Observation, use Observation.RemoveFrequency so scan
// references are repaired.
func (c *Frequencies) Remove(i int) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: frequency index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data[:i], c.data[i+1:]...)
	return nil
}

// At returns the channel at position i.
func (c *Frequencies) At(i int) (*IF, error) {
	if i < 0 || i >= len(c.data) {
		return nil, fmt.Errorf("%w: frequency index %d", ErrIndexOutOfRange, i)
	}
	return c.data[i], nil
}

// Len returns the number of channels.
func (c *Frequencies) Len() int { return len(c.data) }

// All returns the channels in collection order.
func (c *Frequencies) All() []*IF {
	out := make([]*IF, len(c.data))
	copy(out, c.data)
	return out
}

// Active returns the active channels in original relative order.
func (c *Frequencies) Active() []*IF {
	var out []*IF
	for _, f := range c.data {
		if f.IsActive {
			out = append(out, f)
		}
	}
	return out
}

// Inactive returns the inactive channels in original relative order.
func (c *Frequencies) Inactive() []*IF {
	var out []*IF
	for _, f := range c.data {
		if !f.IsActive {
			out = append(out, f)
		}
	}
	return out
}

// SetActive flips the active flag of the channel at position i. Use
// Observation.SetFrequencyActive when the collection is owned.
func (c *Frequencies) SetActive(i int, active bool) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: frequency index %d", ErrIndexOutOfRange, i)
	}
	c.data[i].IsActive = active
	return nil
}

// ActivateAll marks every channel active; empty collections error.
func (c *Frequencies) ActivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no frequencies to activate", ErrEmptyCollection)
	}
	for _, f := range c.data {
		f.IsActive = true
	}
	return nil
}

// DeactivateAll marks every channel inactive; empty collections error.
func (c *Frequencies) DeactivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no frequencies to deactivate", ErrEmptyCollection)
	}
	for _, f := range c.data {
		f.IsActive = false
	}
	return nil
}

// Clear removes all channels.
func (c *Frequencies) Clear() { c.data = nil }

type frequenciesJSON struct {
	Data []*IF `json:"data"`
}

// MarshalJSON serializes the collection as {"data": [...]}.
func (c *Frequencies) MarshalJSON() ([]byte, error) {
	return json.Marshal(frequenciesJSON{Data: c.data})
}

// UnmarshalJSON restores a collection serialized by MarshalJSON.
func (c *Frequencies) UnmarshalJSON(b []byte) error {
	var payload frequenciesJSON
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("frequencies: decode failed: %w", err)
	}
	c.data = payload.Data
	return nil
}
