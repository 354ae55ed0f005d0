package h3mapper

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
	"github.com/mohammed-shakir/geo-normalizer/internal/geonorm"
	"github.com/mohammed-shakir/geo-normalizer/internal/mapper"
)

// polygon edges are great-circle arcs, so wide envelopes are cut into
// chunks no wider than this many degrees of longitude
const maxChunkLon = 90.0

type Mapper struct{}

var (
	_ mapper.Interface   = (*Mapper)(nil)
	_ geonorm.CellMapper = (*Mapper)(nil)
)

func New() *Mapper { return &Mapper{} }

// CellsForExtent covers an extent with H3 cells. Dateline-crossing extents
// are split into envelopes first.
func (m *Mapper) CellsForExtent(ext model.MapExtent, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	ext.MinLat = min(max(ext.MinLat, -90), 90)
	ext.MaxLat = min(max(ext.MaxLat, -90), 90)
	if ext.MinLat >= ext.MaxLat {
		return nil, fmt.Errorf("extent %s has no latitude span", ext)
	}

	envs, err := geonorm.ExtentToEnvelopes(ext)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, 64)
	for _, env := range envs {
		e := geonorm.ClampExtent(env.Extent())
		for _, chunk := range lonChunks(e) {
			cells, err := m.CellsForEnvelope(model.NewEnvelope(chunk), res)
			if err != nil {
				return nil, err
			}
			for _, c := range cells {
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// CellsForEnvelope polyfills a single non-crossing envelope.
func (m *Mapper) CellsForEnvelope(env model.Envelope, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	e := env.Extent()
	if e.MinLon >= e.MaxLon || e.MinLat >= e.MaxLat {
		return nil, errors.New("envelope has no area")
	}
	outer := h3.GeoLoop{
		{Lat: e.MinLat, Lng: e.MinLon},
		{Lat: e.MinLat, Lng: e.MaxLon},
		{Lat: e.MaxLat, Lng: e.MaxLon},
		{Lat: e.MaxLat, Lng: e.MinLon},
	}
	return polyfillOne(outer, nil, res)
}

func (m *Mapper) CellForPoint(p orb.Point, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	if math.IsNaN(p.Lat()) || math.IsNaN(p.Lon()) || p.Lat() < -90 || p.Lat() > 90 {
		return "", fmt.Errorf("point %v out of range", p)
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat(), Lng: p.Lon()}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func lonChunks(e model.MapExtent) []model.MapExtent {
	width := e.MaxLon - e.MinLon
	if width <= maxChunkLon {
		return []model.MapExtent{e}
	}
	n := int(math.Ceil(width / maxChunkLon))
	step := width / float64(n)
	out := make([]model.MapExtent, 0, n)
	for i := 0; i < n; i++ {
		c := e
		c.MinLon = e.MinLon + float64(i)*step
		c.MaxLon = e.MinLon + float64(i+1)*step
		if i == n-1 {
			c.MaxLon = e.MaxLon
		}
		out = append(out, c)
	}
	return out
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) (model.Cells, error) {
	if len(outer) < 3 {
		return nil, errors.New("outer ring has < 3 vertices")
	}
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
