// Package catalog loads source and telescope catalogs from the
// plain-text formats used by observation planning tools and exposes
// lookup helpers over the loaded collections.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/signalsfoundry/vlbi-planner/core"
)

// ErrCatalogFormat reports that a catalog stream contained no usable
// entries at all. Individual malformed lines are skipped and counted,
// not fatal; a stream where nothing parses is a format mismatch.
var ErrCatalogFormat = errors.New("catalog: unrecognized format")

// Stats summarizes a catalog load.
type Stats struct {
	Loaded  int
	Skipped int
}

// altNamePlaceholder marks an absent name column in source catalogs.
const altNamePlaceholder = "ALT_NAME"

var (
	raRe  = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}(?:\.\d+)?)$`)
	decRe = regexp.MustCompile(`^([-+])?(\d{2,3}):(\d{2}):(\d{2}(?:\.\d+)?)$`)
)

// ParseSources reads a source catalog. Each non-comment line holds
// whitespace-separated columns:
//
//	b1950_name j2000_name alt_name ra_hh:mm:ss.ssss dec_dd:mm:ss.ssss
//
// The literal "ALT_NAME" stands for a missing name column. Malformed
// lines and duplicate names are skipped and counted in Stats.Skipped.
func ParseSources(r io.Reader) (*core.Sources, Stats, error) {
	sources := core.NewSources()
	var stats Stats

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 5 {
			stats.Skipped++
			continue
		}

		src, err := parseSourceLine(parts)
		if err != nil {
			stats.Skipped++
			continue
		}
		if err := sources.Add(src); err != nil {
			stats.Skipped++
			continue
		}
		stats.Loaded++
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("catalog: read failed: %w", err)
	}

	if stats.Loaded == 0 && stats.Skipped > 0 {
		return nil, stats, fmt.Errorf("%w: no sources parsed (%d lines skipped)", ErrCatalogFormat, stats.Skipped)
	}
	return sources, stats, nil
}

func parseSourceLine(parts []string) (*core.Source, error) {
	name := parts[0]
	j2000 := parts[1]
	if j2000 == altNamePlaceholder {
		j2000 = ""
	}
	alt := parts[2]
	if alt == altNamePlaceholder {
		alt = ""
	}
	raStr, decStr := parts[len(parts)-2], parts[len(parts)-1]

	ra := raRe.FindStringSubmatch(raStr)
	if ra == nil {
		return nil, fmt.Errorf("invalid RA %q", raStr)
	}
	raH, _ := strconv.ParseFloat(ra[1], 64)
	raM, _ := strconv.ParseFloat(ra[2], 64)
	raS, _ := strconv.ParseFloat(ra[3], 64)

	dec := decRe.FindStringSubmatch(decStr)
	if dec == nil {
		return nil, fmt.Errorf("invalid Dec %q", decStr)
	}
	decD, _ := strconv.ParseFloat(dec[2], 64)
	if dec[1] == "-" {
		// Negate via sign flip so -00 keeps its sign bit.
		decD = -decD
		if decD == 0 {
			decD = negZero
		}
	}
	decM, _ := strconv.ParseFloat(dec[3], 64)
	decS, _ := strconv.ParseFloat(dec[4], 64)

	return &core.Source{
		Name:      name,
		NameJ2000: j2000,
		AltName:   alt,
		RAh:       raH, RAm: raM, RAs: raS,
		DecD: decD, DecM: decM, DecS: decS,
		IsActive: true,
	}, nil
}

var negZero = negativeZero()

func negativeZero() float64 {
	z := 0.0
	return -z
}

// ParseTelescopes reads a telescope catalog. Each non-comment line
// holds whitespace-separated columns:
//
//	number code name x y z diameter [sefd]
//
// Positions are ECEF metres, diameter is metres, SEFD is Jy. Malformed
// lines and duplicate codes are skipped and counted in Stats.Skipped.
func ParseTelescopes(r io.Reader) (*core.Telescopes, Stats, error) {
	telescopes := core.NewTelescopes()
	var stats Stats

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 7 {
			stats.Skipped++
			continue
		}

		tel, err := parseTelescopeLine(parts)
		if err != nil {
			stats.Skipped++
			continue
		}
		if err := telescopes.Add(tel); err != nil {
			stats.Skipped++
			continue
		}
		stats.Loaded++
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("catalog: read failed: %w", err)
	}

	if stats.Loaded == 0 && stats.Skipped > 0 {
		return nil, stats, fmt.Errorf("%w: no telescopes parsed (%d lines skipped)", ErrCatalogFormat, stats.Skipped)
	}
	return telescopes, stats, nil
}

func parseTelescopeLine(parts []string) (*core.Telescope, error) {
	code, name := parts[1], parts[2]

	coords := make([]float64, 4)
	for i, raw := range parts[3:7] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric column %q", raw)
		}
		coords[i] = v
	}

	tel := &core.Telescope{
		Code: code,
		Name: name,
		X:    coords[0], Y: coords[1], Z: coords[2],
		Diameter: coords[3],
		IsActive: true,
	}
	if len(parts) >= 8 {
		sefd, err := strconv.ParseFloat(parts[7], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SEFD column %q", parts[7])
		}
		tel.SEFD = sefd
	}
	return tel, nil
}
