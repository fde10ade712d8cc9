package core

import (
	"errors"
	"math"
	"testing"
)

func TestNewIFRejectsNegatives(t *testing.T) {
	if _, err := NewIF(-1, 16); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative frequency error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewIF(1665, -1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative bandwidth error = %v, want ErrInvalidArgument", err)
	}
	f, err := NewIF(1665, 16)
	if err != nil {
		t.Fatalf("NewIF: %v", err)
	}
	if !f.IsActive {
		t.Fatal("new IF not active")
	}
}

func TestIFWavelength(t *testing.T) {
	f, _ := NewIF(1665, 16)
	wl, err := f.Wavelength()
	if err != nil {
		t.Fatalf("Wavelength: %v", err)
	}
	want := CMHzCm / 1665
	if math.Abs(wl-want) > 1e-12 {
		t.Fatalf("Wavelength = %v cm, want %v", wl, want)
	}

	zero := &IF{Frequency: 0, Bandwidth: 16}
	if _, err := zero.Wavelength(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero-frequency wavelength error = %v, want ErrInvalidArgument", err)
	}
}

func TestFrequenciesDuplicateValue(t *testing.T) {
	c := NewFrequencies()
	a, _ := NewIF(1665, 16)
	if err := c.Add(a); err != nil {
		t.Fatalf("first add: %v", err)
	}
	b, _ := NewIF(1665, 32)
	if err := c.Add(b); !errors.Is(err, ErrDuplicateFrequency) {
		t.Fatalf("duplicate add error = %v, want ErrDuplicateFrequency", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d after rejected add, want 1", c.Len())
	}
}

func TestFrequenciesActivation(t *testing.T) {
	c := NewFrequencies()
	a, _ := NewIF(1665, 16)
	b, _ := NewIF(4836, 32)
	_ = c.Add(a)
	_ = c.Add(b)

	if err := c.SetActive(0, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	active := c.Active()
	if len(active) != 1 || active[0].Frequency != 4836 {
		t.Fatalf("Active = %v", active)
	}

	if err := c.ActivateAll(); err != nil {
		t.Fatalf("ActivateAll: %v", err)
	}
	if len(c.Active()) != 2 {
		t.Fatal("ActivateAll missed a channel")
	}

	c.Clear()
	if err := c.ActivateAll(); !errors.Is(err, ErrEmptyCollection) {
		t.Fatalf("ActivateAll on empty = %v, want ErrEmptyCollection", err)
	}
}
