package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Geometry is a GeoJSON-style geometry record. Coordinates stay raw so tags
// that have no orb equivalent survive a round trip untouched.
type Geometry struct {
	Type        string
	Coordinates json.RawMessage
	Geometries  []Geometry

	// members other than type/coordinates/geometries, e.g. "orientation"
	Extra map[string]json.RawMessage
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(g.Extra)+2)
	maps.Copy(out, g.Extra)

	t, err := json.Marshal(g.Type)
	if err != nil {
		return nil, err
	}
	out["type"] = t
	if len(g.Coordinates) > 0 {
		out["coordinates"] = g.Coordinates
	}
	if g.Geometries != nil {
		gs, err := json.Marshal(g.Geometries)
		if err != nil {
			return nil, fmt.Errorf("marshal geometries: %w", err)
		}
		out["geometries"] = gs
	}
	return json.Marshal(out)
}

func (g *Geometry) UnmarshalJSON(b []byte) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(b, &root); err != nil {
		return fmt.Errorf("geometry must be an object: %w", err)
	}
	var out Geometry
	if tRaw, ok := root["type"]; ok {
		if err := json.Unmarshal(tRaw, &out.Type); err != nil {
			return fmt.Errorf(`parse "type": %w`, err)
		}
		delete(root, "type")
	}
	if c, ok := root["coordinates"]; ok {
		out.Coordinates = bytes.Clone(c)
		delete(root, "coordinates")
	}
	if gs, ok := root["geometries"]; ok {
		if err := json.Unmarshal(gs, &out.Geometries); err != nil {
			return fmt.Errorf(`parse "geometries": %w`, err)
		}
		delete(root, "geometries")
	}
	if len(root) > 0 {
		out.Extra = root
	}
	*g = out
	return nil
}

// Clone returns a deep copy.
func (g Geometry) Clone() Geometry {
	out := Geometry{Type: g.Type}
	if g.Coordinates != nil {
		out.Coordinates = bytes.Clone(g.Coordinates)
	}
	if g.Geometries != nil {
		out.Geometries = make([]Geometry, len(g.Geometries))
		for i := range g.Geometries {
			out.Geometries[i] = g.Geometries[i].Clone()
		}
	}
	if g.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(g.Extra))
		for k, v := range g.Extra {
			out.Extra[k] = bytes.Clone(v)
		}
	}
	return out
}

// Orb decodes the geometry into an orb.Geometry. Fails for tags orb does not
// know, which includes every lowercase tag outside the translation table.
func (g Geometry) Orb() (orb.Geometry, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	og, err := geojson.UnmarshalGeometry(b)
	if err != nil {
		return nil, fmt.Errorf("decode %q geometry: %w", g.Type, err)
	}
	return og.Geometry(), nil
}

func PointGeometry(p orb.Point) Geometry {
	coords, _ := json.Marshal([2]float64{p.Lon(), p.Lat()})
	return Geometry{Type: "Point", Coordinates: coords}
}
