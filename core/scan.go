package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// noSource marks a scan without a source reference.
const noSource = -1

// Scan is a time-bounded observing event. It references at most one
// source and subsets of the owning Observation's telescopes and
// frequencies by position (index) into those collections.
//
// Alongside the current reference sets, a scan remembers the references
// it was configured with ("intended" sets). Structural reindexing keeps
// both in step; activation sync mutates only the current sets and uses
// the intended sets to decide what a re-activation may restore.
type Scan struct {
	start    time.Time
	duration time.Duration
	active   bool

	sourceIdx    int
	telescopeIdx []int // sorted ascending, duplicate-free
	frequencyIdx []int

	offSource bool
	// offSourceDeact marks scans whose source reference was cleared by a
	// deactivation, as opposed to removal or an explicit clear. Only
	// these scans are restorable when the source comes back.
	offSourceDeact bool

	intendedSource int
	intendedTel    []int
	intendedFreq   []int
}

// NewScan creates an active, off-source scan with no references.
func NewScan(start time.Time, duration time.Duration) *Scan {
	return &Scan{
		start:          start,
		duration:       duration,
		active:         true,
		sourceIdx:      noSource,
		offSource:      true,
		intendedSource: noSource,
	}
}

// Start returns the scan start time.
func (s *Scan) Start() time.Time { return s.start }

// Duration returns the scan duration.
func (s *Scan) Duration() time.Duration { return s.duration }

// End returns the exclusive end of the scan interval [start, start+duration).
func (s *Scan) End() time.Time { return s.start.Add(s.duration) }

// IsActive reports whether the scan participates in the observation.
func (s *Scan) IsActive() bool { return s.active }

// SetActive flips the scan's active flag.
func (s *Scan) SetActive(active bool) { s.active = active }

// IsOffSource reports whether the scan currently has no source
// association (calibration scan, or the source became unavailable).
func (s *Scan) IsOffSource() bool { return s.offSource }

// SourceIndex returns the referenced source position. ok is false when
// the scan is off-source.
func (s *Scan) SourceIndex() (int, bool) {
	if s.offSource {
		return 0, false
	}
	return s.sourceIdx, true
}

// TelescopeIndices returns a copy of the current telescope reference set.
func (s *Scan) TelescopeIndices() []int {
	out := make([]int, len(s.telescopeIdx))
	copy(out, s.telescopeIdx)
	return out
}

// FrequencyIndices returns a copy of the current frequency reference set.
func (s *Scan) FrequencyIndices() []int {
	out := make([]int, len(s.frequencyIdx))
	copy(out, s.frequencyIdx)
	return out
}

// SetStart sets the scan start time.
func (s *Scan) SetStart(start time.Time) { s.start = start }

// SetDuration sets the scan duration.
func (s *Scan) SetDuration(d time.Duration) { s.duration = d }

// SetSourceIndex points the scan at the source at position i and
// records i as the intended source.
func (s *Scan) SetSourceIndex(i int) error {
	if i < 0 {
		return fmt.Errorf("%w: source index %d", ErrInvalidArgument, i)
	}
	s.sourceIdx = i
	s.intendedSource = i
	s.offSource = false
	s.offSourceDeact = false
	return nil
}

// ClearSource makes the scan off-source and erases the intended-source
// memory: an explicit clear is a statement of intent, so nothing is
// restorable afterwards.
func (s *Scan) ClearSource() {
	s.sourceIdx = noSource
	s.intendedSource = noSource
	s.offSource = true
	s.offSourceDeact = false
}

// SetTelescopeIndices replaces the telescope reference set. Indices are
// deduplicated and kept sorted; negatives are rejected. The normalized
// set also becomes the intended set.
func (s *Scan) SetTelescopeIndices(indices []int) error {
	norm, err := normalizeIndices(indices)
	if err != nil {
		return err
	}
	s.telescopeIdx = norm
	s.intendedTel = append([]int(nil), norm...)
	return nil
}

// SetFrequencyIndices replaces the frequency reference set, with the
// same normalization rules as SetTelescopeIndices.
func (s *Scan) SetFrequencyIndices(indices []int) error {
	norm, err := normalizeIndices(indices)
	if err != nil {
		return err
	}
	s.frequencyIdx = norm
	s.intendedFreq = append([]int(nil), norm...)
	return nil
}

// Validate checks that the scan is a usable observing event.
func (s *Scan) Validate() error {
	if s.start.IsZero() {
		return fmt.Errorf("scan has zero start time")
	}
	if s.duration <= 0 {
		return fmt.Errorf("scan at %s: duration must be positive, got %v", s.start.Format(time.RFC3339), s.duration)
	}
	if len(s.telescopeIdx) == 0 {
		return fmt.Errorf("scan at %s references no telescopes", s.start.Format(time.RFC3339))
	}
	if len(s.frequencyIdx) == 0 {
		return fmt.Errorf("scan at %s references no frequencies", s.start.Format(time.RFC3339))
	}
	if !s.offSource && s.sourceIdx < 0 {
		return fmt.Errorf("scan at %s is on-source but has no source index", s.start.Format(time.RFC3339))
	}
	return nil
}

// shiftAfterRemoval rewrites the scan's references after the entity at
// pos was removed from the collection identified by kind. It returns
// the number of references dropped from the scan.
func (s *Scan) shiftAfterRemoval(kind EntityKind, pos int) (int, error) {
	switch kind {
	case KindSources:
		// Intended memory follows the logical source: removal of the
		// intended position means there is nothing left to restore.
		if s.intendedSource == pos {
			s.intendedSource = noSource
			s.offSourceDeact = false
		} else if s.intendedSource > pos {
			s.intendedSource--
		}
		if s.offSource {
			return 0, nil
		}
		if s.sourceIdx == pos {
			s.sourceIdx = noSource
			s.offSource = true
			return 1, nil
		}
		if s.sourceIdx > pos {
			s.sourceIdx--
		}
		return 0, nil
	case KindTelescopes:
		var dropped int
		s.telescopeIdx, dropped = shiftRemoval(s.telescopeIdx, pos)
		s.intendedTel, _ = shiftRemoval(s.intendedTel, pos)
		return dropped, nil
	case KindFrequencies:
		var dropped int
		s.frequencyIdx, dropped = shiftRemoval(s.frequencyIdx, pos)
		s.intendedFreq, _ = shiftRemoval(s.intendedFreq, pos)
		return dropped, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidEntityKind, kind)
	}
}

// shiftAfterInsertion rewrites the scan's references after an entity
// was inserted at pos into the collection identified by kind.
func (s *Scan) shiftAfterInsertion(kind EntityKind, pos int) error {
	switch kind {
	case KindSources:
		if s.intendedSource >= pos && s.intendedSource != noSource {
			s.intendedSource++
		}
		if !s.offSource && s.sourceIdx >= pos {
			s.sourceIdx++
		}
		return nil
	case KindTelescopes:
		s.telescopeIdx = shiftInsertion(s.telescopeIdx, pos)
		s.intendedTel = shiftInsertion(s.intendedTel, pos)
		return nil
	case KindFrequencies:
		s.frequencyIdx = shiftInsertion(s.frequencyIdx, pos)
		s.intendedFreq = shiftInsertion(s.intendedFreq, pos)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEntityKind, kind)
	}
}

// syncEntityDeactivated drops the scan's reference to the entity at pos
// after it was deactivated. Intended sets are untouched so a later
// re-activation can restore the reference. Returns the number of
// references dropped.
func (s *Scan) syncEntityDeactivated(kind EntityKind, pos int) int {
	switch kind {
	case KindSources:
		if !s.offSource && s.sourceIdx == pos {
			s.sourceIdx = noSource
			s.offSource = true
			s.offSourceDeact = true
			return 1
		}
	case KindTelescopes:
		if containsIndex(s.telescopeIdx, pos) {
			s.telescopeIdx = removeIndex(s.telescopeIdx, pos)
			return 1
		}
	case KindFrequencies:
		if containsIndex(s.frequencyIdx, pos) {
			s.frequencyIdx = removeIndex(s.frequencyIdx, pos)
			return 1
		}
	}
	return 0
}

// syncEntityReactivated restores the scan's reference to the entity at
// pos after it was re-activated, but only if pos is part of the scan's
// intended set (so an unrelated entity that now occupies the position
// is never resurrected into the scan). Returns true if a reference was
// restored.
func (s *Scan) syncEntityReactivated(kind EntityKind, pos int) bool {
	switch kind {
	case KindSources:
		if s.offSource && s.offSourceDeact && s.intendedSource == pos {
			s.sourceIdx = pos
			s.offSource = false
			s.offSourceDeact = false
			return true
		}
	case KindTelescopes:
		if containsIndex(s.intendedTel, pos) && !containsIndex(s.telescopeIdx, pos) {
			s.telescopeIdx = insertSorted(s.telescopeIdx, pos)
			return true
		}
	case KindFrequencies:
		if containsIndex(s.intendedFreq, pos) && !containsIndex(s.frequencyIdx, pos) {
			s.frequencyIdx = insertSorted(s.frequencyIdx, pos)
			return true
		}
	}
	return false
}

type scanJSON struct {
	SourceIndex      *int      `json:"source_index"`
	TelescopeIndices []int     `json:"telescope_indices"`
	FrequencyIndices []int     `json:"frequency_indices"`
	Start            time.Time `json:"start"`
	DurationSec      float64   `json:"duration_sec"`
	IsOffSource      bool      `json:"is_off_source"`
	IsActive         bool      `json:"isactive"`

	// Restore memory; emitted only when it differs from the current
	// reference sets.
	IntendedSourceIndex      *int  `json:"intended_source_index,omitempty"`
	IntendedTelescopeIndices []int `json:"intended_telescope_indices,omitempty"`
	IntendedFrequencyIndices []int `json:"intended_frequency_indices,omitempty"`
	OffSourceDeactivated     bool  `json:"off_source_deactivated,omitempty"`
}

// MarshalJSON serializes the scan with positional references intact.
func (s *Scan) MarshalJSON() ([]byte, error) {
	payload := scanJSON{
		TelescopeIndices:     s.TelescopeIndices(),
		FrequencyIndices:     s.FrequencyIndices(),
		Start:                s.start,
		DurationSec:          s.duration.Seconds(),
		IsOffSource:          s.offSource,
		IsActive:             s.active,
		OffSourceDeactivated: s.offSourceDeact,
	}
	if !s.offSource {
		idx := s.sourceIdx
		payload.SourceIndex = &idx
	}
	if s.intendedSource != s.sourceIdx && s.intendedSource != noSource {
		idx := s.intendedSource
		payload.IntendedSourceIndex = &idx
	}
	if !equalIndices(s.intendedTel, s.telescopeIdx) {
		payload.IntendedTelescopeIndices = append([]int(nil), s.intendedTel...)
	}
	if !equalIndices(s.intendedFreq, s.frequencyIdx) {
		payload.IntendedFrequencyIndices = append([]int(nil), s.intendedFreq...)
	}
	return json.Marshal(payload)
}

// UnmarshalJSON restores a scan serialized by MarshalJSON. Intended
// sets default to the current sets when absent.
func (s *Scan) UnmarshalJSON(b []byte) error {
	var payload scanJSON
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("scan: decode failed: %w", err)
	}

	s.start = payload.Start
	s.duration = time.Duration(payload.DurationSec * float64(time.Second))
	s.active = payload.IsActive
	s.offSource = payload.IsOffSource
	s.offSourceDeact = payload.OffSourceDeactivated

	s.sourceIdx = noSource
	if payload.SourceIndex != nil {
		s.sourceIdx = *payload.SourceIndex
	}
	s.intendedSource = s.sourceIdx
	if payload.IntendedSourceIndex != nil {
		s.intendedSource = *payload.IntendedSourceIndex
	}

	var err error
	if s.telescopeIdx, err = normalizeIndices(payload.TelescopeIndices); err != nil {
		return fmt.Errorf("scan: telescope indices: %w", err)
	}
	if s.frequencyIdx, err = normalizeIndices(payload.FrequencyIndices); err != nil {
		return fmt.Errorf("scan: frequency indices: %w", err)
	}
	s.intendedTel = append([]int(nil), s.telescopeIdx...)
	if payload.IntendedTelescopeIndices != nil {
		if s.intendedTel, err = normalizeIndices(payload.IntendedTelescopeIndices); err != nil {
			return fmt.Errorf("scan: intended telescope indices: %w", err)
		}
	}
	s.intendedFreq = append([]int(nil), s.frequencyIdx...)
	if payload.IntendedFrequencyIndices != nil {
		if s.intendedFreq, err = normalizeIndices(payload.IntendedFrequencyIndices); err != nil {
			return fmt.Errorf("scan: intended frequency indices: %w", err)
		}
	}
	return nil
}

// Scans is an ordered collection of Scan. Insertion order is
// chronological intent; actual temporal consistency is checked by
// Observation.Validate.
type Scans struct {
	data []*Scan
}

// NewScans creates an empty collection.
func NewScans() *Scans {
	return &Scans{}
}

// Add appends a scan.
func (c *Scans) Add(s *Scan) error {
	if s == nil {
		return fmt.Errorf("%w: nil scan", ErrInvalidArgument)
	}
	c.data = append(c.data, s)
	return nil
}

// Insert places s at position i. Nothing references scans by position,
// so unlike the entity collections this needs no index rewriting.
func (c *Scans) Insert(s *Scan, i int) error {
	if s == nil {
		return fmt.Errorf("%w: nil scan", ErrInvalidArgument)
	}
	if i < 0 || i > len(c.data) {
		return fmt.Errorf("%w: scan index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data, nil)
	copy(c.data[i+1:], c.data[i:])
	c.data[i] = s
	return nil
}

// Remove deletes the scan at position i. Nothing references scans by
// position, so no reindexing is required.
func (c *Scans) Remove(i int) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: scan index %d", ErrIndexOutOfRange, i)
	}
	c.data = append(c.data[:i], c.data[i+1:]...)
	return nil
}

// At returns the scan at position i.
func (c *Scans) At(i int) (*Scan, error) {
	if i < 0 || i >= len(c.data) {
		return nil, fmt.Errorf("%w: scan index %d", ErrIndexOutOfRange, i)
	}
	return c.data[i], nil
}

// Len returns the number of scans.
func (c *Scans) Len() int { return len(c.data) }

// All returns the scans in collection order.
func (c *Scans) All() []*Scan {
	out := make([]*Scan, len(c.data))
	copy(out, c.data)
	return out
}

// Active returns the active scans in original relative order.
func (c *Scans) Active() []*Scan {
	var out []*Scan
	for _, s := range c.data {
		if s.active {
			out = append(out, s)
		}
	}
	return out
}

// ActivateAll marks every scan active; empty collections error.
func (c *Scans) ActivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no scans to activate", ErrEmptyCollection)
	}
	for _, s := range c.data {
		s.active = true
	}
	return nil
}

// DeactivateAll marks every scan inactive; empty collections error.
func (c *Scans) DeactivateAll() error {
	if len(c.data) == 0 {
		return fmt.Errorf("%w: no scans to deactivate", ErrEmptyCollection)
	}
	for _, s := range c.data {
		s.active = false
	}
	return nil
}

// Clear removes all scans.
func (c *Scans) Clear() { c.data = nil }

type scansJSON struct {
	Data []*Scan `json:"data"`
}

// MarshalJSON serializes the collection as {"data": [...]}.
func (c *Scans) MarshalJSON() ([]byte, error) {
	return json.Marshal(scansJSON{Data: c.data})
}

// UnmarshalJSON restores a collection serialized by MarshalJSON.
func (c *Scans) UnmarshalJSON(b []byte) error {
	var payload scansJSON
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("scans: decode failed: %w", err)
	}
	c.data = payload.Data
	return nil
}

//
// ---------- Index-set helpers ----------
//

// normalizeIndices sorts, deduplicates, and copies an index set,
// rejecting negative positions.
func normalizeIndices(indices []int) ([]int, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(indices))
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 {
			return nil, fmt.Errorf("%w: negative index %d", ErrInvalidArgument, i)
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// shiftRemoval drops pos from the set and decrements every index above
// it, returning the new set and the number of dropped entries.
func shiftRemoval(indices []int, pos int) ([]int, int) {
	if len(indices) == 0 {
		return indices, 0
	}
	out := indices[:0]
	dropped := 0
	for _, i := range indices {
		switch {
		case i == pos:
			dropped++
		case i > pos:
			out = append(out, i-1)
		default:
			out = append(out, i)
		}
	}
	return out, dropped
}

// shiftInsertion increments every index at or above pos.
func shiftInsertion(indices []int, pos int) []int {
	for j, i := range indices {
		if i >= pos {
			indices[j] = i + 1
		}
	}
	return indices
}

func containsIndex(indices []int, v int) bool {
	for _, i := range indices {
		if i == v {
			return true
		}
	}
	return false
}

func removeIndex(indices []int, v int) []int {
	out := indices[:0]
	for _, i := range indices {
		if i != v {
			out = append(out, i)
		}
	}
	return out
}

func insertSorted(indices []int, v int) []int {
	j := sort.SearchInts(indices, v)
	indices = append(indices, 0)
	copy(indices[j+1:], indices[j:])
	indices[j] = v
	return indices
}

func equalIndices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
