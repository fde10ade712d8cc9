package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

var scanEpoch = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func testScan(t *testing.T) *Scan {
	t.Helper()
	sc := NewScan(scanEpoch, 10*time.Minute)
	if err := sc.SetSourceIndex(0); err != nil {
		t.Fatalf("SetSourceIndex: %v", err)
	}
	if err := sc.SetTelescopeIndices([]int{0, 1}); err != nil {
		t.Fatalf("SetTelescopeIndices: %v", err)
	}
	if err := sc.SetFrequencyIndices([]int{0}); err != nil {
		t.Fatalf("SetFrequencyIndices: %v", err)
	}
	return sc
}

func TestNewScanIsOffSource(t *testing.T) {
	sc := NewScan(scanEpoch, time.Minute)
	if !sc.IsOffSource() {
		t.Fatal("new scan should be off-source")
	}
	if _, ok := sc.SourceIndex(); ok {
		t.Fatal("off-source scan reported a source index")
	}
	if !sc.IsActive() {
		t.Fatal("new scan should be active")
	}
	if got := sc.End(); !got.Equal(scanEpoch.Add(time.Minute)) {
		t.Fatalf("End = %v", got)
	}
}

func TestScanSetSourceIndex(t *testing.T) {
	sc := NewScan(scanEpoch, time.Minute)
	if err := sc.SetSourceIndex(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative index error = %v, want ErrInvalidArgument", err)
	}
	if err := sc.SetSourceIndex(3); err != nil {
		t.Fatalf("SetSourceIndex: %v", err)
	}
	idx, ok := sc.SourceIndex()
	if !ok || idx != 3 {
		t.Fatalf("SourceIndex = %d,%v, want 3,true", idx, ok)
	}
	if sc.IsOffSource() {
		t.Fatal("scan still off-source after SetSourceIndex")
	}

	sc.ClearSource()
	if !sc.IsOffSource() {
		t.Fatal("ClearSource left scan on-source")
	}
}

func TestScanIndexNormalization(t *testing.T) {
	sc := NewScan(scanEpoch, time.Minute)
	if err := sc.SetTelescopeIndices([]int{3, 1, 3, 0}); err != nil {
		t.Fatalf("SetTelescopeIndices: %v", err)
	}
	if got := sc.TelescopeIndices(); !reflect.DeepEqual(got, []int{0, 1, 3}) {
		t.Fatalf("TelescopeIndices = %v, want [0 1 3]", got)
	}
	if err := sc.SetFrequencyIndices([]int{0, -2}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative frequency index error = %v, want ErrInvalidArgument", err)
	}
}

func TestScanValidate(t *testing.T) {
	if err := testScan(t).Validate(); err != nil {
		t.Fatalf("valid scan rejected: %v", err)
	}

	sc := testScan(t)
	sc.SetDuration(0)
	if err := sc.Validate(); err == nil {
		t.Fatal("zero duration accepted")
	}

	sc = NewScan(scanEpoch, time.Minute)
	if err := sc.Validate(); err == nil {
		t.Fatal("scan without telescopes accepted")
	}
}

func TestScanJSONRoundTrip(t *testing.T) {
	sc := testScan(t)
	sc.SetActive(false)

	raw, err := json.Marshal(sc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Scan
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Start().Equal(sc.Start()) || back.Duration() != sc.Duration() {
		t.Fatalf("round-trip time: %v/%v", back.Start(), back.Duration())
	}
	if back.IsActive() {
		t.Fatal("round-trip lost inactive flag")
	}
	idx, ok := back.SourceIndex()
	if !ok || idx != 0 {
		t.Fatalf("round-trip SourceIndex = %d,%v", idx, ok)
	}
	if !reflect.DeepEqual(back.TelescopeIndices(), sc.TelescopeIndices()) {
		t.Fatalf("round-trip telescopes = %v", back.TelescopeIndices())
	}
}

func TestScanJSONKeepsRestoreMemory(t *testing.T) {
	// Deactivate the scan's source, serialize, and make sure a load
	// still knows which source a re-activation should restore.
	sc := testScan(t)
	if dropped := sc.syncEntityDeactivated(KindSources, 0); dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}

	raw, err := json.Marshal(sc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Scan
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.IsOffSource() {
		t.Fatal("round-trip lost off-source state")
	}
	if !back.syncEntityReactivated(KindSources, 0) {
		t.Fatal("round-trip lost restore memory")
	}
	idx, ok := back.SourceIndex()
	if !ok || idx != 0 {
		t.Fatalf("restored SourceIndex = %d,%v, want 0,true", idx, ok)
	}
}

func TestScansCollection(t *testing.T) {
	c := NewScans()
	if err := c.Add(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Add(nil) error = %v, want ErrInvalidArgument", err)
	}

	a := NewScan(scanEpoch, time.Minute)
	b := NewScan(scanEpoch.Add(time.Hour), time.Minute)
	_ = c.Add(a)
	_ = c.Add(b)
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}

	b.SetActive(false)
	if got := c.Active(); len(got) != 1 || got[0] != a {
		t.Fatalf("Active = %v", got)
	}

	if err := c.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, _ := c.At(0)
	if got != b {
		t.Fatal("Remove dropped the wrong scan")
	}
}
