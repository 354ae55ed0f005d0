// Package model defines core domain types shared across the normalizer.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

var (
	ErrUnsupportedFieldType = errors.New("unsupported field type")
	ErrUnsupportedEncoding  = errors.New("unsupported encoding")
	ErrUnsupportedShape     = errors.New("unsupported shape type")
	ErrInvalidExtent        = errors.New("invalid extent")
)

// FieldType discriminates how a geo field is mapped in the search index.
type FieldType string

const (
	FieldGeoPoint FieldType = "geo_point"
	FieldGeoShape FieldType = "geo_shape"
)

func (t FieldType) Validate() error {
	switch t {
	case FieldGeoPoint, FieldGeoShape:
		return nil
	default:
		return fmt.Errorf("%w, expected: %s or %s, you provided: %q",
			ErrUnsupportedFieldType, FieldGeoShape, FieldGeoPoint, string(t))
	}
}

// MapExtent is a viewport rectangle. min <= max is not enforced.
type MapExtent struct {
	MinLon float64 `json:"minLon" yaml:"minLon"`
	MaxLon float64 `json:"maxLon" yaml:"maxLon"`
	MinLat float64 `json:"minLat" yaml:"minLat"`
	MaxLat float64 `json:"maxLat" yaml:"maxLat"`
}

// String representation matching the wfs/wms bbox ordering
func (e MapExtent) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", e.MinLon, e.MinLat, e.MaxLon, e.MaxLat)
}

// Validate rejects NaN and infinite bounds. Out-of-range finite values are
// left to clamping.
func (e MapExtent) Validate() error {
	for _, b := range []struct {
		name string
		v    float64
	}{{"minLon", e.MinLon}, {"maxLon", e.MaxLon}, {"minLat", e.MinLat}, {"maxLat", e.MaxLat}} {
		if math.IsNaN(b.v) || math.IsInf(b.v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidExtent, b.name, b.v)
		}
	}
	return nil
}

// ParseExtent reads "minLon,minLat,maxLon,maxLat".
func ParseExtent(s string) (MapExtent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return MapExtent{}, fmt.Errorf("extent %q: want minLon,minLat,maxLon,maxLat", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return MapExtent{}, fmt.Errorf("extent %q: part %d: %w", s, i, err)
		}
		v[i] = f
	}
	ext := MapExtent{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	if err := ext.Validate(); err != nil {
		return MapExtent{}, fmt.Errorf("extent %q: %w", s, err)
	}
	return ext, nil
}

const EnvelopeType = "envelope"

// Envelope is a rectangle given as its top-left and bottom-right corners.
type Envelope struct {
	Type        string       `json:"type"`
	Coordinates [2]orb.Point `json:"coordinates"`
}

func NewEnvelope(e MapExtent) Envelope {
	return Envelope{
		Type: EnvelopeType,
		Coordinates: [2]orb.Point{
			{e.MinLon, e.MaxLat},
			{e.MaxLon, e.MinLat},
		},
	}
}

func (e Envelope) TopLeft() orb.Point     { return e.Coordinates[0] }
func (e Envelope) BottomRight() orb.Point { return e.Coordinates[1] }

func (e Envelope) Extent() MapExtent {
	return MapExtent{
		MinLon: e.Coordinates[0].Lon(),
		MaxLat: e.Coordinates[0].Lat(),
		MaxLon: e.Coordinates[1].Lon(),
		MinLat: e.Coordinates[1].Lat(),
	}
}

// Cells is a sorted, de-duplicated list of H3 cell indexes.
type Cells []string
