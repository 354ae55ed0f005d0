package geonorm

import (
	"encoding/json"
	"errors"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

const RelationIntersects = "INTERSECTS"

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type BoundingBox struct {
	TopLeft     LatLon `json:"top_left"`
	BottomRight LatLon `json:"bottom_right"`
}

type ShapeQuery struct {
	Shape    model.Envelope `json:"shape"`
	Relation string         `json:"relation"`
}

// Filter is a geo query clause on one field. Exactly one of BoundingBox,
// Shape or Should is set.
type Filter struct {
	Field       string
	BoundingBox *BoundingBox
	Shape       *ShapeQuery
	Should      []Filter
}

func (f Filter) MarshalJSON() ([]byte, error) {
	switch {
	case f.Should != nil:
		return json.Marshal(map[string]any{
			"bool": map[string]any{
				"should":               f.Should,
				"minimum_should_match": 1,
			},
		})
	case f.BoundingBox != nil:
		return json.Marshal(map[string]any{
			"geo_bounding_box": map[string]*BoundingBox{f.Field: f.BoundingBox},
		})
	case f.Shape != nil:
		return json.Marshal(map[string]any{
			"geo_shape": map[string]*ShapeQuery{f.Field: f.Shape},
		})
	default:
		return nil, errors.New("empty geo filter")
	}
}

func clampLon(v float64) float64 { return min(max(v, -180), 180) }
func clampLat(v float64) float64 { return min(max(v, -90), 90) }

// ClampExtent clamps each bound into range. It does not resolve dateline
// crossing, only out-of-range excess.
func ClampExtent(e model.MapExtent) model.MapExtent {
	return model.MapExtent{
		MinLon: clampLon(e.MinLon),
		MaxLon: clampLon(e.MaxLon),
		MinLat: clampLat(e.MinLat),
		MaxLat: clampLat(e.MaxLat),
	}
}

// ExtentFilter builds a filter selecting documents whose geo field falls in
// the clamped extent: geo_bounding_box for points, an INTERSECTS envelope
// for shapes.
func ExtentFilter(e model.MapExtent, geoField string, ft model.FieldType) (Filter, error) {
	if err := ft.Validate(); err != nil {
		return Filter{}, err
	}
	if err := e.Validate(); err != nil {
		return Filter{}, err
	}
	return envelopeFilter(model.NewEnvelope(ClampExtent(e)), geoField, ft), nil
}

// SplitExtentFilter is ExtentFilter with dateline handling: a crossing
// extent becomes a bool/should over one filter per envelope.
func SplitExtentFilter(e model.MapExtent, geoField string, ft model.FieldType) (Filter, error) {
	if err := ft.Validate(); err != nil {
		return Filter{}, err
	}
	e.MinLat, e.MaxLat = clampLat(e.MinLat), clampLat(e.MaxLat)

	envs, err := ExtentToEnvelopes(e)
	if err != nil {
		return Filter{}, err
	}
	if len(envs) == 1 {
		return envelopeFilter(model.NewEnvelope(ClampExtent(envs[0].Extent())), geoField, ft), nil
	}
	should := make([]Filter, 0, len(envs))
	for _, env := range envs {
		should = append(should, envelopeFilter(model.NewEnvelope(ClampExtent(env.Extent())), geoField, ft))
	}
	return Filter{Field: geoField, Should: should}, nil
}

func envelopeFilter(env model.Envelope, geoField string, ft model.FieldType) Filter {
	if ft == model.FieldGeoPoint {
		tl, br := env.TopLeft(), env.BottomRight()
		return Filter{
			Field: geoField,
			BoundingBox: &BoundingBox{
				TopLeft:     LatLon{Lat: tl.Lat(), Lon: tl.Lon()},
				BottomRight: LatLon{Lat: br.Lat(), Lon: br.Lon()},
			},
		}
	}
	return Filter{
		Field: geoField,
		Shape: &ShapeQuery{Shape: env, Relation: RelationIntersects},
	}
}
