package geonorm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
	"github.com/mohammed-shakir/geo-normalizer/internal/keys"
	"github.com/mohammed-shakir/geo-normalizer/internal/metrics"
)

const DefaultH3Property = "h3_cell"

type CellMapper interface {
	CellForPoint(p orb.Point, res int) (string, error)
}

type Options struct {
	// H3 resolution for point feature annotation, used only with a CellMapper
	H3Res      int
	H3Property string
	WithBBox   bool
}

// Builder turns search hits into feature collections. The zero value is
// ready to use and behaves like HitsToFeatureCollection.
type Builder struct {
	Options Options
	Cells   CellMapper
	Metrics *metrics.Normalizer
	Log     *slog.Logger
}

type Diagnostics struct {
	TotalIn  int `json:"total_in"`
	TotalOut int `json:"total_out"`
	Dropped  int `json:"dropped"`
	Cells    int `json:"cells"`
}

// HitsToFeatureCollection builds a feature collection from hits, dropping
// hits that have no value for geoField in _source.
func HitsToFeatureCollection(hits []json.RawMessage, geoField string, ft model.FieldType) (model.FeatureCollection, error) {
	var b Builder
	fc, _, err := b.Build(context.Background(), hits, geoField, ft)
	return fc, err
}

func (b *Builder) Build(ctx context.Context, hits []json.RawMessage, geoField string, ft model.FieldType) (model.FeatureCollection, Diagnostics, error) {
	diag := Diagnostics{TotalIn: len(hits)}
	if err := ft.Validate(); err != nil {
		b.Metrics.IncError(ErrorKind(err))
		return model.FeatureCollection{}, diag, err
	}
	log := b.logger()

	features := make([]model.Feature, 0, len(hits))
	var bound orb.Bound
	hasBound := false

	for i, raw := range hits {
		hit := gjson.ParseBytes(raw)
		value, path, ok := lookupGeoValue(hit, geoField)
		if !ok {
			diag.Dropped++
			log.DebugContext(ctx, "hit dropped, geo field absent", "index", i, "geo_field", geoField)
			continue
		}

		geom, err := toGeometry([]byte(value.Raw), ft)
		if err != nil {
			b.Metrics.IncError(ErrorKind(err))
			return model.FeatureCollection{}, diag, fmt.Errorf("hit %d: %w", i, err)
		}

		f := model.Feature{
			Type:       model.FeatureType,
			ID:         featureID(hit),
			Geometry:   geom,
			Properties: properties(hit, path),
		}

		if b.Options.WithBBox || b.Cells != nil {
			og, oerr := geom.Orb()
			if oerr != nil {
				log.DebugContext(ctx, "geometry not decodable, skipped for bbox and cells", "index", i, "type", geom.Type, "err", oerr)
			} else {
				if b.Options.WithBBox {
					if hasBound {
						bound = bound.Union(og.Bound())
					} else {
						bound, hasBound = og.Bound(), true
					}
				}
				if pt, isPoint := og.(orb.Point); isPoint && b.Cells != nil {
					if b.annotateCell(ctx, f.Properties, pt) {
						diag.Cells++
					}
				}
			}
		}
		features = append(features, f)
	}

	fc := model.NewFeatureCollection(features)
	if hasBound {
		fc.BBox = []float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()}
	}
	diag.TotalOut = len(features)
	b.Metrics.AddFeatures(diag.TotalOut)
	b.Metrics.AddDropped(diag.Dropped)
	return fc, diag, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Log != nil {
		return b.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (b *Builder) annotateCell(ctx context.Context, props model.Properties, pt orb.Point) bool {
	cell, err := b.Cells.CellForPoint(pt, b.Options.H3Res)
	if err != nil {
		b.logger().WarnContext(ctx, "h3 cell lookup failed", "lon", pt.Lon(), "lat", pt.Lat(), "err", err)
		return false
	}
	name := b.Options.H3Property
	if name == "" {
		name = DefaultH3Property
	}
	props[name] = json.RawMessage(strconv.Quote(cell))
	return true
}

func toGeometry(raw []byte, ft model.FieldType) (model.Geometry, error) {
	switch ft {
	case model.FieldGeoPoint:
		p, err := model.ParseGeoPoint(raw)
		if err != nil {
			return model.Geometry{}, err
		}
		return PointToGeometry(p)
	case model.FieldGeoShape:
		s, err := model.ParseGeoShape(raw)
		if err != nil {
			return model.Geometry{}, err
		}
		return ShapeToGeometry(s)
	default:
		return model.Geometry{}, ft.Validate()
	}
}

// lookupGeoValue finds geoField in _source, first as a literal key and then
// as a dotted path. Null values and paths through non-objects are absent.
func lookupGeoValue(hit gjson.Result, geoField string) (gjson.Result, []string, bool) {
	src := hit.Get("_source")
	if !src.IsObject() {
		return gjson.Result{}, nil, false
	}
	if v, ok := member(src, geoField); ok && v.Type != gjson.Null {
		return v, []string{geoField}, true
	}
	path := strings.Split(geoField, ".")
	if len(path) < 2 {
		return gjson.Result{}, nil, false
	}
	cur := src
	for _, seg := range path {
		if !cur.IsObject() {
			return gjson.Result{}, nil, false
		}
		v, ok := member(cur, seg)
		if !ok {
			return gjson.Result{}, nil, false
		}
		cur = v
	}
	if cur.Type == gjson.Null {
		return gjson.Result{}, nil, false
	}
	return cur, path, true
}

// member looks a key up literally, so names containing gjson path syntax
// such as '*' or '?' still match.
func member(obj gjson.Result, key string) (gjson.Result, bool) {
	var out gjson.Result
	found := false
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out, found = v, true
			return false
		}
		return true
	})
	return out, found
}

// featureID keeps a string or numeric _id as it appears in the hit.
func featureID(hit gjson.Result) json.RawMessage {
	if id := hit.Get("_id"); id.Type == gjson.String || id.Type == gjson.Number {
		return json.RawMessage(id.Raw)
	}
	return json.RawMessage(strconv.Quote(keys.FeatureID([]byte(hit.Raw))))
}

// properties collects every _source field except the geo field, then every
// computed field with single-element arrays unwrapped.
func properties(hit gjson.Result, geoPath []string) model.Properties {
	props := model.Properties{}
	hit.Get("_source").ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		switch {
		case len(geoPath) == 1 && name == geoPath[0]:
		case len(geoPath) > 1 && name == geoPath[0]:
			props[name] = withoutPath(json.RawMessage(v.Raw), geoPath[1:])
		default:
			props[name] = json.RawMessage(v.Raw)
		}
		return true
	})
	hit.Get("fields").ForEach(func(k, v gjson.Result) bool {
		if v.IsArray() {
			if arr := v.Array(); len(arr) == 1 {
				props[k.String()] = json.RawMessage(arr[0].Raw)
				return true
			}
		}
		props[k.String()] = json.RawMessage(v.Raw)
		return true
	})
	return props
}

// withoutPath removes the nested member at path from a JSON object, keeping
// the order of the remaining members.
func withoutPath(raw json.RawMessage, path []string) json.RawMessage {
	escaped := make([]string, len(path))
	for i, seg := range path {
		escaped[i] = escapePathSegment(seg)
	}
	out, err := sjson.DeleteBytes(raw, strings.Join(escaped, "."))
	if err != nil {
		return raw
	}
	return out
}

// escapePathSegment makes a member name literal in a gjson/sjson path.
func escapePathSegment(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
