package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ObservationType distinguishes interferometric runs from single-dish ones.
type ObservationType string

const (
	TypeVLBI       ObservationType = "VLBI"
	TypeSingleDish ObservationType = "SINGLE_DISH"
)

// EntityKind identifies which of the Observation's collections an
// index-consistency operation targets.
type EntityKind string

const (
	KindSources     EntityKind = "sources"
	KindTelescopes  EntityKind = "telescopes"
	KindFrequencies EntityKind = "frequencies"
)

// MetricsRecorder receives index-engine activity so an external
// collector (e.g. Prometheus) can track mutation load without the core
// depending on a metrics library. A nil recorder is fine.
type MetricsRecorder interface {
	// ReindexApplied is called once per structural change, after every
	// scan has been visited. op is "insert" or "remove".
	ReindexApplied(kind EntityKind, op string, scansVisited int)
	// ScanReferenceDropped is called for each reference a scan lost.
	ScanReferenceDropped(kind EntityKind)
	// ObserveCounts reports current collection sizes after a mutation.
	ObserveCounts(sources, telescopes, frequencies, scans int)
}

// Observation is the aggregate root: it owns one Sources, one
// Telescopes, one Frequencies and one Scans, and keeps every scan's
// positional references valid while those collections are mutated.
//
// All structural mutation of the entity collections must go through the
// Observation so the index-rewrite walk runs; mutating an owned
// collection directly leaves scan references dangling.
type Observation struct {
	code    string
	obsType ObservationType
	active  bool

	sources     *Sources
	telescopes  *Telescopes
	frequencies *Frequencies
	scans       *Scans

	// calculated holds derived results keyed by calculation name. It is
	// a pure function of the current inputs and is cleared wholesale on
	// any structural or bulk-set mutation.
	calculated map[string]any

	metrics MetricsRecorder
}

// NewObservation creates an active observation with empty collections.
func NewObservation(code string, typ ObservationType) (*Observation, error) {
	if typ != TypeVLBI && typ != TypeSingleDish {
		return nil, fmt.Errorf("%w: observation type %q", ErrInvalidArgument, typ)
	}
	return &Observation{
		code:        code,
		obsType:     typ,
		active:      true,
		sources:     NewSources(),
		telescopes:  NewTelescopes(),
		frequencies: NewFrequencies(),
		scans:       NewScans(),
		calculated:  make(map[string]any),
	}, nil
}

// SetMetricsRecorder attaches a recorder for index-engine activity.
func (o *Observation) SetMetricsRecorder(r MetricsRecorder) { o.metrics = r }

// Code returns the observation code.
func (o *Observation) Code() string { return o.code }

// SetCode replaces the observation code.
func (o *Observation) SetCode(code string) error {
	if code == "" {
		return fmt.Errorf("%w: empty observation code", ErrInvalidArgument)
	}
	o.code = code
	return nil
}

// Type returns the observation type.
func (o *Observation) Type() ObservationType { return o.obsType }

// SetType replaces the observation type.
func (o *Observation) SetType(typ ObservationType) error {
	if typ != TypeVLBI && typ != TypeSingleDish {
		return fmt.Errorf("%w: observation type %q", ErrInvalidArgument, typ)
	}
	o.obsType = typ
	return nil
}

// IsActive reports the observation's own active flag.
func (o *Observation) IsActive() bool { return o.active }

// SetActive flips the observation's active flag.
func (o *Observation) SetActive(active bool) { o.active = active }

// Sources returns the owned source collection.
func (o *Observation) Sources() *Sources { return o.sources }

// Telescopes returns the owned telescope collection.
func (o *Observation) Telescopes() *Telescopes { return o.telescopes }

// Frequencies returns the owned frequency collection.
func (o *Observation) Frequencies() *Frequencies { return o.frequencies }

// Scans returns the owned scan collection.
func (o *Observation) Scans() *Scans { return o.scans }

// StartTime returns the earliest start among active scans. ok is false
// when there are none.
func (o *Observation) StartTime() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, s := range o.scans.Active() {
		if !found || s.Start().Before(earliest) {
			earliest = s.Start()
			found = true
		}
	}
	return earliest, found
}

//
// ---------- Bulk replacement ----------
//

// SetSources replaces the owned source collection and invalidates
// calculated data.
func (o *Observation) SetSources(s *Sources) error {
	if s == nil {
		return fmt.Errorf("%w: nil sources", ErrInvalidArgument)
	}
	o.sources = s
	o.structuralChange()
	return nil
}

// SetTelescopes replaces the owned telescope collection.
func (o *Observation) SetTelescopes(t *Telescopes) error {
	if t == nil {
		return fmt.Errorf("%w: nil telescopes", ErrInvalidArgument)
	}
	o.telescopes = t
	o.structuralChange()
	return nil
}

// SetFrequencies replaces the owned frequency collection.
func (o *Observation) SetFrequencies(f *Frequencies) error {
	if f == nil {
		return fmt.Errorf("%w: nil frequencies", ErrInvalidArgument)
	}
	o.frequencies = f
	o.structuralChange()
	return nil
}

// SetScans replaces the owned scan collection.
func (o *Observation) SetScans(s *Scans) error {
	if s == nil {
		return fmt.Errorf("%w: nil scans", ErrInvalidArgument)
	}
	o.scans = s
	o.structuralChange()
	return nil
}

//
// ---------- Structural mutation (appends) ----------
//

// AddSource appends a source. Appending never shifts existing
// positions, so no reindex walk is needed, but derived data is stale.
func (o *Observation) AddSource(s *Source) error {
	if err := o.sources.Add(s); err != nil {
		return err
	}
	o.structuralChange()
	return nil
}

// AddTelescope appends a telescope.
func (o *Observation) AddTelescope(t *Telescope) error {
	if err := o.telescopes.Add(t); err != nil {
		return err
	}
	o.structuralChange()
	return nil
}

// AddFrequency appends an IF channel.
func (o *Observation) AddFrequency(f *IF) error {
	if err := o.frequencies.Add(f); err != nil {
		return err
	}
	o.structuralChange()
	return nil
}

// AddScan appends a scan.
func (o *Observation) AddScan(s *Scan) error {
	if err := o.scans.Add(s); err != nil {
		return err
	}
	o.structuralChange()
	return nil
}

// InsertScan places a scan at position i. Scans are not referenced by
// position, so no reindexing is required, but derived data is stale.
func (o *Observation) InsertScan(s *Scan, i int) error {
	if err := o.scans.Insert(s, i); err != nil {
		return err
	}
	o.structuralChange()
	return nil
}

// RemoveScan deletes the scan at position i. Scans are not referenced
// by position, so no reindexing is required.
func (o *Observation) RemoveScan(i int) error {
	if err := o.scans.Remove(i); err != nil {
		return err
	}
	o.structuralChange()
	return nil
}

//
// ---------- Structural mutation (index-rewriting) ----------
//

// InsertEntity inserts entity at position i into the collection named
// by kind and rewrites every scan's references: indices at or above i
// shift right by one. entity must be *Source, *Telescope or *IF
// matching kind.
func (o *Observation) InsertEntity(kind EntityKind, entity any, i int) error {
	switch kind {
	case KindSources:
		s, ok := entity.(*Source)
		if !ok {
			return fmt.Errorf("%w: expected *Source, got %T", ErrInvalidArgument, entity)
		}
		if err := o.sources.insertAt(s, i); err != nil {
			return err
		}
	case KindTelescopes:
		t, ok := entity.(*Telescope)
		if !ok {
			return fmt.Errorf("%w: expected *Telescope, got %T", ErrInvalidArgument, entity)
		}
		if err := o.telescopes.insertAt(t, i); err != nil {
			return err
		}
	case KindFrequencies:
		f, ok := entity.(*IF)
		if !ok {
			return fmt.Errorf("%w: expected *IF, got %T", ErrInvalidArgument, entity)
		}
		if err := o.frequencies.insertAt(f, i); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEntityKind, kind)
	}

	o.reindexAfterInsertion(kind, i)
	o.structuralChange()
	return nil
}

// RemoveEntity removes the entity at position i from the collection
// named by kind and rewrites every scan's references: the removed index
// is dropped, indices above it shift left by one.
func (o *Observation) RemoveEntity(kind EntityKind, i int) error {
	switch kind {
	case KindSources:
		if err := o.sources.Remove(i); err != nil {
			return err
		}
	case KindTelescopes:
		if err := o.telescopes.Remove(i); err != nil {
			return err
		}
	case KindFrequencies:
		if err := o.frequencies.Remove(i); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEntityKind, kind)
	}

	o.reindexAfterRemoval(kind, i)
	o.structuralChange()
	return nil
}

// InsertSource inserts a source at position i and reindexes scans.
func (o *Observation) InsertSource(s *Source, i int) error {
	return o.InsertEntity(KindSources, s, i)
}

// RemoveSource removes the source at position i and reindexes scans.
// Scans referencing exactly that position degrade to off-source.
func (o *Observation) RemoveSource(i int) error {
	return o.RemoveEntity(KindSources, i)
}

// InsertTelescope inserts a telescope at position i and reindexes scans.
func (o *Observation) InsertTelescope(t *Telescope, i int) error {
	return o.InsertEntity(KindTelescopes, t, i)
}

// RemoveTelescope removes the telescope at position i and reindexes scans.
func (o *Observation) RemoveTelescope(i int) error {
	return o.RemoveEntity(KindTelescopes, i)
}

// InsertFrequency inserts an IF channel at position i and reindexes scans.
func (o *Observation) InsertFrequency(f *IF, i int) error {
	return o.InsertEntity(KindFrequencies, f, i)
}

// RemoveFrequency removes the IF channel at position i and reindexes scans.
func (o *Observation) RemoveFrequency(i int) error {
	return o.RemoveEntity(KindFrequencies, i)
}

// reindexAfterRemoval visits every scan exactly once and applies the
// removal shift. The walk completes before the mutation is considered
// committed; callers never observe a half-updated state.
func (o *Observation) reindexAfterRemoval(kind EntityKind, pos int) {
	visited := 0
	for _, sc := range o.scans.data {
		dropped, _ := sc.shiftAfterRemoval(kind, pos)
		visited++
		if o.metrics != nil {
			for n := 0; n < dropped; n++ {
				o.metrics.ScanReferenceDropped(kind)
			}
		}
	}
	if o.metrics != nil {
		o.metrics.ReindexApplied(kind, "remove", visited)
	}
}

// reindexAfterInsertion visits every scan exactly once and applies the
// insertion shift.
func (o *Observation) reindexAfterInsertion(kind EntityKind, pos int) {
	visited := 0
	for _, sc := range o.scans.data {
		_ = sc.shiftAfterInsertion(kind, pos)
		visited++
	}
	if o.metrics != nil {
		o.metrics.ReindexApplied(kind, "insert", visited)
	}
}

//
// ---------- Activation-state sync ----------
//

// SetEntityActive toggles the active flag of the entity at position i
// in the collection named by kind and synchronizes scan references:
// deactivation drops the reference (a source-referencing scan degrades
// to off-source), re-activation restores it only for scans whose
// intended set contains the position.
//
// This is not a structural change: no positions shift and calculated
// data stays valid.
func (o *Observation) SetEntityActive(kind EntityKind, i int, active bool) error {
	var err error
	switch kind {
	case KindSources:
		err = o.sources.SetActive(i, active)
	case KindTelescopes:
		err = o.telescopes.SetActive(i, active)
	case KindFrequencies:
		err = o.frequencies.SetActive(i, active)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEntityKind, kind)
	}
	if err != nil {
		return err
	}

	for _, sc := range o.scans.data {
		if active {
			sc.syncEntityReactivated(kind, i)
		} else {
			dropped := sc.syncEntityDeactivated(kind, i)
			if o.metrics != nil {
				for n := 0; n < dropped; n++ {
					o.metrics.ScanReferenceDropped(kind)
				}
			}
		}
	}
	return nil
}

// SetSourceActive toggles the source at position i and syncs scans.
func (o *Observation) SetSourceActive(i int, active bool) error {
	return o.SetEntityActive(KindSources, i, active)
}

// SetTelescopeActive toggles the telescope at position i and syncs scans.
func (o *Observation) SetTelescopeActive(i int, active bool) error {
	return o.SetEntityActive(KindTelescopes, i, active)
}

// SetFrequencyActive toggles the IF channel at position i and syncs scans.
func (o *Observation) SetFrequencyActive(i int, active bool) error {
	return o.SetEntityActive(KindFrequencies, i, active)
}

//
// ---------- Calculated data ----------
//

// SetCalculatedData stores a derived result under key. Calculation
// collaborators write results here; any structural mutation clears the
// whole store.
func (o *Observation) SetCalculatedData(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty calculated-data key", ErrInvalidArgument)
	}
	o.calculated[key] = value
	return nil
}

// CalculatedData retrieves a derived result by key.
func (o *Observation) CalculatedData(key string) (any, bool) {
	v, ok := o.calculated[key]
	return v, ok
}

// CalculatedDataLen returns the number of stored derived results.
func (o *Observation) CalculatedDataLen() int { return len(o.calculated) }

// structuralChange clears derived results (they are a pure function of
// inputs that just changed) and publishes collection sizes.
func (o *Observation) structuralChange() {
	for k := range o.calculated {
		delete(o.calculated, k)
	}
	if o.metrics != nil {
		o.metrics.ObserveCounts(o.sources.Len(), o.telescopes.Len(), o.frequencies.Len(), o.scans.Len())
	}
}

//
// ---------- Validation ----------
//

// Validate is a read-only consistency check. It returns nil when the
// observation is ready to run, or an error naming the first failing
// condition. A failed validation is a reported condition, not a fault:
// callers decide how to react.
func (o *Observation) Validate() error {
	if o.code == "" {
		return fmt.Errorf("observation code is empty")
	}
	if o.obsType != TypeVLBI && o.obsType != TypeSingleDish {
		return fmt.Errorf("invalid observation type %q", o.obsType)
	}

	activeSources := o.sources.Active()
	if len(activeSources) == 0 {
		return fmt.Errorf("observation %q has no active sources", o.code)
	}
	for _, s := range activeSources {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("observation %q: %w", o.code, err)
		}
	}

	activeTelescopes := o.telescopes.Active()
	if len(activeTelescopes) == 0 {
		return fmt.Errorf("observation %q has no active telescopes", o.code)
	}
	for _, t := range activeTelescopes {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("observation %q: %w", o.code, err)
		}
	}

	activeFrequencies := o.frequencies.Active()
	if len(activeFrequencies) == 0 {
		return fmt.Errorf("observation %q has no active frequencies", o.code)
	}
	for _, f := range activeFrequencies {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("observation %q: %w", o.code, err)
		}
	}

	activeScans := o.scans.Active()
	if len(activeScans) == 0 {
		return fmt.Errorf("observation %q has no active scans", o.code)
	}
	for _, sc := range activeScans {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("observation %q: %w", o.code, err)
		}
	}

	// Temporal consistency: walk active scans in start order; a
	// telescope may not appear in two overlapping intervals.
	sorted := append([]*Scan(nil), activeScans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start().Before(sorted[j].Start()) })

	type interval struct{ start, end time.Time }
	busy := make(map[string][]interval)

	for _, sc := range sorted {
		if err := o.checkTelescopeAvailability(sc); err != nil {
			return fmt.Errorf("observation %q: %w", o.code, err)
		}

		scStart, scEnd := sc.Start(), sc.End()
		for _, ti := range sc.telescopeIdx {
			tel, err := o.telescopes.At(ti)
			if err != nil {
				return fmt.Errorf("observation %q: scan at %s references missing telescope %d",
					o.code, scStart.Format(time.RFC3339), ti)
			}
			if !tel.IsActive {
				continue
			}
			for _, prev := range busy[tel.Code] {
				if !(scEnd.Compare(prev.start) <= 0 || scStart.Compare(prev.end) >= 0) {
					return fmt.Errorf("observation %q: scan overlap on telescope %q: [%s, %s) vs [%s, %s)",
						o.code, tel.Code,
						prev.start.Format(time.RFC3339), prev.end.Format(time.RFC3339),
						scStart.Format(time.RFC3339), scEnd.Format(time.RFC3339))
				}
			}
			busy[tel.Code] = append(busy[tel.Code], interval{start: scStart, end: scEnd})
		}
	}

	return nil
}

// checkTelescopeAvailability verifies that every active ground
// telescope a scan references can actually see the scan's source at the
// scan start (elevation at or above MinElevationDeg). Orbital
// telescopes have no horizon; off-source scans have nothing to point at.
func (o *Observation) checkTelescopeAvailability(sc *Scan) error {
	if sc.offSource {
		return nil
	}
	src, err := o.sources.At(sc.sourceIdx)
	if err != nil {
		return fmt.Errorf("scan at %s references missing source %d",
			sc.start.Format(time.RFC3339), sc.sourceIdx)
	}

	dir := SourceDirectionECEF(src.RADegrees(), src.DecDegrees(), sc.start)
	for _, ti := range sc.telescopeIdx {
		tel, err := o.telescopes.At(ti)
		if err != nil {
			return fmt.Errorf("scan at %s references missing telescope %d",
				sc.start.Format(time.RFC3339), ti)
		}
		if !tel.IsActive || tel.IsOrbital() {
			continue
		}
		pos, err := tel.PositionAt(sc.start)
		if err != nil {
			return err
		}
		if elev := ElevationOfDirection(pos, dir); elev < MinElevationDeg {
			return fmt.Errorf("source %q below horizon for telescope %q at %s (elevation %.1f deg)",
				src.Name, tel.Code, sc.start.Format(time.RFC3339), elev)
		}
	}
	return nil
}

//
// ---------- Serialization ----------
//

type observationJSON struct {
	ObservationCode string          `json:"observation_code"`
	ObservationType ObservationType `json:"observation_type"`
	Sources         *Sources        `json:"sources"`
	Telescopes      *Telescopes     `json:"telescopes"`
	Frequencies     *Frequencies    `json:"frequencies"`
	Scans           *Scans          `json:"scans"`
	IsActive        bool            `json:"isactive"`
	CalculatedData  map[string]any  `json:"calculated_data"`
}

// MarshalJSON serializes the whole aggregate. Quantity values inside
// calculated_data flatten to bare numbers (see Quantity).
func (o *Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{
		ObservationCode: o.code,
		ObservationType: o.obsType,
		Sources:         o.sources,
		Telescopes:      o.telescopes,
		Frequencies:     o.frequencies,
		Scans:           o.scans,
		IsActive:        o.active,
		CalculatedData:  o.calculated,
	})
}

// UnmarshalJSON restores an observation serialized by MarshalJSON.
// Units on calculated values are not reconstructed: quantities come
// back as plain float64 numbers.
func (o *Observation) UnmarshalJSON(b []byte) error {
	var payload observationJSON
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("observation: decode failed: %w", err)
	}
	if payload.ObservationType != TypeVLBI && payload.ObservationType != TypeSingleDish {
		return fmt.Errorf("%w: observation type %q", ErrInvalidArgument, payload.ObservationType)
	}

	o.code = payload.ObservationCode
	o.obsType = payload.ObservationType
	o.active = payload.IsActive

	o.sources = payload.Sources
	if o.sources == nil {
		o.sources = NewSources()
	}
	o.telescopes = payload.Telescopes
	if o.telescopes == nil {
		o.telescopes = NewTelescopes()
	}
	o.frequencies = payload.Frequencies
	if o.frequencies == nil {
		o.frequencies = NewFrequencies()
	}
	o.scans = payload.Scans
	if o.scans == nil {
		o.scans = NewScans()
	}

	o.calculated = payload.CalculatedData
	if o.calculated == nil {
		o.calculated = make(map[string]any)
	}
	return nil
}
