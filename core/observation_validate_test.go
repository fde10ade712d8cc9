package core

import (
	"strings"
	"testing"
	"time"
)

var validateEpoch = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func TestValidateAcceptsConsistentObservation(t *testing.T) {
	obs := testObservation(t)
	addScanAt(t, obs, validateEpoch, 0, []int{0, 1}, []int{0})
	addScanAt(t, obs, validateEpoch.Add(time.Hour), 1, []int{0, 1}, []int{1})

	if err := obs.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRequiresActiveMembers(t *testing.T) {
	obs := testObservation(t)
	addScanAt(t, obs, validateEpoch, 0, []int{0}, []int{0})

	if err := obs.Sources().DeactivateAll(); err != nil {
		t.Fatalf("DeactivateAll: %v", err)
	}
	err := obs.Validate()
	if err == nil || !strings.Contains(err.Error(), "no active sources") {
		t.Fatalf("Validate = %v, want no-active-sources failure", err)
	}

	_ = obs.Sources().ActivateAll()
	_ = obs.Scans().DeactivateAll()
	err = obs.Validate()
	if err == nil || !strings.Contains(err.Error(), "no active scans") {
		t.Fatalf("Validate = %v, want no-active-scans failure", err)
	}
}

func TestValidateOverlapOnSharedTelescope(t *testing.T) {
	obs := testObservation(t)
	// [8:00, 8:10) and [8:05, 8:15) on the same telescope collide.
	addScanAt(t, obs, validateEpoch, 0, []int{0}, []int{0})
	addScanAt(t, obs, validateEpoch.Add(5*time.Minute), 1, []int{0}, []int{0})

	err := obs.Validate()
	if err == nil || !strings.Contains(err.Error(), "overlap") {
		t.Fatalf("Validate = %v, want overlap failure", err)
	}
}

func TestValidateBackToBackScansDoNotOverlap(t *testing.T) {
	obs := testObservation(t)
	// [8:00, 8:10) and [8:10, 8:20): the end boundary is exclusive.
	addScanAt(t, obs, validateEpoch, 0, []int{0}, []int{0})
	addScanAt(t, obs, validateEpoch.Add(10*time.Minute), 1, []int{0}, []int{0})

	if err := obs.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateConcurrentScansOnDisjointTelescopes(t *testing.T) {
	obs := testObservation(t)
	addScanAt(t, obs, validateEpoch, 0, []int{0}, []int{0})
	addScanAt(t, obs, validateEpoch, 1, []int{1}, []int{0})

	if err := obs.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateInactiveScansIgnored(t *testing.T) {
	obs := testObservation(t)
	addScanAt(t, obs, validateEpoch, 0, []int{0}, []int{0})
	colliding := addScanAt(t, obs, validateEpoch.Add(5*time.Minute), 1, []int{0}, []int{0})
	colliding.SetActive(false)

	if err := obs.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateSourceBelowHorizon(t *testing.T) {
	obs := testObservation(t)
	// From the equator a polar source sits exactly on the horizon, well
	// under the elevation floor.
	if err := obs.AddTelescope(equatorTelescope("KM")); err != nil {
		t.Fatalf("AddTelescope: %v", err)
	}
	addScanAt(t, obs, validateEpoch, 0, []int{3}, []int{0})

	err := obs.Validate()
	if err == nil || !strings.Contains(err.Error(), "below horizon") {
		t.Fatalf("Validate = %v, want below-horizon failure", err)
	}
}

func TestValidateOffSourceScanSkipsAvailability(t *testing.T) {
	obs := testObservation(t)
	if err := obs.AddTelescope(equatorTelescope("KM")); err != nil {
		t.Fatalf("AddTelescope: %v", err)
	}
	// Off-source (calibration) scans have nothing to point at, so the
	// horizon check does not apply.
	addScanAt(t, obs, validateEpoch, -1, []int{3}, []int{0})

	if err := obs.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateOrbitalTelescopeAlwaysAvailable(t *testing.T) {
	obs := testObservation(t)
	orb := polarTelescope("RA")
	orb.Code = "RA"
	orb.TLELine1 = tleLine1
	orb.TLELine2 = tleLine2
	if err := obs.AddTelescope(orb); err != nil {
		t.Fatalf("AddTelescope: %v", err)
	}
	addScanAt(t, obs, validateEpoch, 0, []int{3}, []int{0})

	if err := obs.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateInvalidMemberSurfacesReason(t *testing.T) {
	obs := testObservation(t)
	addScanAt(t, obs, validateEpoch, 0, []int{0}, []int{0})

	bad := polarSource("BAD")
	bad.RAh = 99
	if err := obs.AddSource(bad); err != nil {
		t.Fatalf("AddSource: %v", err)
	}

	err := obs.Validate()
	if err == nil || !strings.Contains(err.Error(), "BAD") {
		t.Fatalf("Validate = %v, want member failure naming the source", err)
	}
}
