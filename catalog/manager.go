package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/signalsfoundry/vlbi-planner/core"
	"github.com/signalsfoundry/vlbi-planner/internal/logging"
)

// Manager holds loaded source and telescope catalogs and answers
// lookups against them. It is a read-mostly cache: load once, query
// many times.
type Manager struct {
	log logging.Logger

	sources    *core.Sources
	telescopes *core.Telescopes
}

// NewManager creates an empty manager. A nil logger is replaced with a
// no-op one.
func NewManager(log logging.Logger) *Manager {
	if log == nil {
		log = logging.Noop()
	}
	return &Manager{
		log:        log,
		sources:    core.NewSources(),
		telescopes: core.NewTelescopes(),
	}
}

// LoadSourceCatalog reads the source catalog at path, replacing any
// previously loaded sources. A missing file is fatal; malformed lines
// are skipped with a warning.
func (m *Manager) LoadSourceCatalog(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("catalog: open source catalog: %w", err)
	}
	defer f.Close()

	sources, stats, err := ParseSources(f)
	if err != nil {
		return stats, fmt.Errorf("catalog: %q: %w", path, err)
	}
	m.sources = sources

	if stats.Skipped > 0 {
		m.log.Warn(ctx, "source catalog loaded with skips",
			logging.String("path", path),
			logging.Int("loaded", stats.Loaded),
			logging.Int("skipped", stats.Skipped))
	} else {
		m.log.Info(ctx, "source catalog loaded",
			logging.String("path", path),
			logging.Int("loaded", stats.Loaded))
	}
	return stats, nil
}

// LoadTelescopeCatalog reads the telescope catalog at path, replacing
// any previously loaded telescopes.
func (m *Manager) LoadTelescopeCatalog(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("catalog: open telescope catalog: %w", err)
	}
	defer f.Close()

	telescopes, stats, err := ParseTelescopes(f)
	if err != nil {
		return stats, fmt.Errorf("catalog: %q: %w", path, err)
	}
	m.telescopes = telescopes

	if stats.Skipped > 0 {
		m.log.Warn(ctx, "telescope catalog loaded with skips",
			logging.String("path", path),
			logging.Int("loaded", stats.Loaded),
			logging.Int("skipped", stats.Skipped))
	} else {
		m.log.Info(ctx, "telescope catalog loaded",
			logging.String("path", path),
			logging.Int("loaded", stats.Loaded))
	}
	return stats, nil
}

// Sources returns the loaded source catalog.
func (m *Manager) Sources() *core.Sources { return m.sources }

// Telescopes returns the loaded telescope catalog.
func (m *Manager) Telescopes() *core.Telescopes { return m.telescopes }

// SourceByName looks up a source by its B1950 or J2000 name. ok is
// false when no catalog entry matches.
func (m *Manager) SourceByName(name string) (*core.Source, bool) {
	for _, s := range m.sources.All() {
		if s.Name == name || (s.NameJ2000 != "" && s.NameJ2000 == name) {
			return s, true
		}
	}
	return nil, false
}

// TelescopeByCode looks up a telescope by its station code.
func (m *Manager) TelescopeByCode(code string) (*core.Telescope, bool) {
	for _, t := range m.telescopes.All() {
		if t.Code == code {
			return t, true
		}
	}
	return nil, false
}

// SourcesByRARange returns catalog sources whose right ascension in
// degrees lies within [min, max].
func (m *Manager) SourcesByRARange(min, max float64) []*core.Source {
	var out []*core.Source
	for _, s := range m.sources.All() {
		if ra := s.RADegrees(); ra >= min && ra <= max {
			out = append(out, s)
		}
	}
	return out
}

// SourcesByDecRange returns catalog sources whose declination in
// degrees lies within [min, max].
func (m *Manager) SourcesByDecRange(min, max float64) []*core.Source {
	var out []*core.Source
	for _, s := range m.sources.All() {
		if dec := s.DecDegrees(); dec >= min && dec <= max {
			out = append(out, s)
		}
	}
	return out
}

// ClearCatalogs drops both loaded catalogs.
func (m *Manager) ClearCatalogs() {
	m.sources = core.NewSources()
	m.telescopes = core.NewTelescopes()
}
