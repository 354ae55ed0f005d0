package model

import "encoding/json"

const (
	FeatureType           = "Feature"
	FeatureCollectionType = "FeatureCollection"
)

// Property values are kept as raw JSON so source numbers keep their precision.
type Properties map[string]json.RawMessage

// ID is raw JSON so numeric and string ids stay distinct.
type Feature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id,omitempty"`
	Geometry   Geometry        `json:"geometry"`
	Properties Properties      `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	BBox     []float64 `json:"bbox,omitempty"`
	Features []Feature `json:"features"`
}

func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: FeatureCollectionType, Features: features}
}
