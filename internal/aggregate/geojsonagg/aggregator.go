package geojsonagg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/mohammed-shakir/geo-normalizer/internal/aggregate"
	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

type Aggregator struct {
	DeduplicateByID bool

	last Diagnostics
}

var (
	_ aggregate.Interface        = (*Aggregator)(nil)
	_ aggregate.CollectionMerger = (*Aggregator)(nil)
)

func New(dedup bool) *Aggregator {
	return &Aggregator{DeduplicateByID: dedup}
}

type Diagnostics struct {
	TotalIn   int `json:"total_in"`
	TotalOut  int `json:"total_out"`
	DedupByID int `json:"dedup_by_id"`
}

// Diagnostics reports counts for the most recent merge.
func (a *Aggregator) Diagnostics() Diagnostics { return a.last }

// rawCollection is a merged document whose features are kept byte-for-byte.
type rawCollection struct {
	Type     string            `json:"type"`
	BBox     []float64         `json:"bbox,omitempty"`
	Features []json.RawMessage `json:"features"`
}

// Merge concatenates the features of serialized FeatureCollections in part
// order. Every part is validated, including feature ids, whether or not
// dedup is on. The bbox of the result covers every part that carries one.
func (a *Aggregator) Merge(parts [][]byte) ([]byte, error) {
	a.last = Diagnostics{}
	out := rawCollection{Type: model.FeatureCollectionType, Features: make([]json.RawMessage, 0, 128)}
	seen := map[string]struct{}{}

	for i, p := range parts {
		root, err := collectionRoot(p)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		bbox, err := bboxOf(root.Get("bbox"))
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		out.BBox = unionBBox(out.BBox, bbox)

		for j, f := range root.Get("features").Array() {
			a.last.TotalIn++
			if !f.IsObject() || f.Get("type").String() != model.FeatureType {
				return nil, fmt.Errorf("part %d feature %d: not a Feature object", i, j)
			}
			keep, err := a.admit(seen, []byte(f.Get("id").Raw))
			if err != nil {
				return nil, fmt.Errorf("part %d feature %d: %w", i, j, err)
			}
			if keep {
				out.Features = append(out.Features, json.RawMessage(f.Raw))
			}
		}
	}
	a.last.TotalOut = len(out.Features)

	buf, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal merged FeatureCollection: %w", err)
	}
	return buf, nil
}

// MergeCollections is Merge for decoded collections.
func (a *Aggregator) MergeCollections(parts []model.FeatureCollection) model.FeatureCollection {
	a.last = Diagnostics{}
	features := make([]model.Feature, 0, 128)
	seen := map[string]struct{}{}
	var bbox []float64

	for _, p := range parts {
		bbox = unionBBox(bbox, p.BBox)
		for _, f := range p.Features {
			a.last.TotalIn++
			// ids the builder emits are always strings or numbers
			if keep, err := a.admit(seen, f.ID); err == nil && !keep {
				continue
			}
			features = append(features, f)
		}
	}
	a.last.TotalOut = len(features)

	fc := model.NewFeatureCollection(features)
	fc.BBox = bbox
	return fc
}

// admit reports whether a feature with this raw id should be kept, recording
// the id when dedup is on.
func (a *Aggregator) admit(seen map[string]struct{}, id []byte) (bool, error) {
	key, err := idKey(id)
	if err != nil {
		return false, err
	}
	if !a.DeduplicateByID || key == "" {
		return true, nil
	}
	if _, dup := seen[key]; dup {
		a.last.DedupByID++
		return false, nil
	}
	seen[key] = struct{}{}
	return true, nil
}

func collectionRoot(p []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(p) {
		return gjson.Result{}, errors.New("not valid JSON")
	}
	root := gjson.ParseBytes(p)
	if !root.IsObject() {
		return gjson.Result{}, errors.New("not a JSON object")
	}
	if typ := root.Get("type"); typ.Type != gjson.String || typ.Str != model.FeatureCollectionType {
		return gjson.Result{}, fmt.Errorf(`type is %s (want "FeatureCollection")`, typ.Raw)
	}
	if !root.Get("features").IsArray() {
		return gjson.Result{}, errors.New(`"features" must be an array`)
	}
	return root, nil
}

func bboxOf(r gjson.Result) ([]float64, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	arr := r.Array()
	if !r.IsArray() || len(arr) != 4 {
		return nil, fmt.Errorf("bbox %s: want [minLon,minLat,maxLon,maxLat]", r.Raw)
	}
	out := make([]float64, 4)
	for i, v := range arr {
		if v.Type != gjson.Number {
			return nil, fmt.Errorf("bbox %s: not a number at %d", r.Raw, i)
		}
		out[i] = v.Float()
	}
	return out, nil
}

func unionBBox(acc, b []float64) []float64 {
	if len(b) != 4 {
		return acc
	}
	if acc == nil {
		return append([]float64(nil), b...)
	}
	return []float64{min(acc[0], b[0]), min(acc[1], b[1]), max(acc[2], b[2]), max(acc[3], b[3])}
}

// idKey separates string and numeric ids; "1" and 1 are different. An absent
// or null id has no key.
func idKey(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	id := gjson.ParseBytes(raw)
	switch id.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
		return "s:" + id.Str, nil
	case gjson.Number:
		return "n:" + id.Raw, nil
	default:
		return "", fmt.Errorf("id must be string or number, got %s", id.Raw)
	}
}
