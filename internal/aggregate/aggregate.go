// Package aggregate defines feature collection merge interfaces.
package aggregate

import "github.com/mohammed-shakir/geo-normalizer/internal/core/model"

// Interface merges serialized FeatureCollections.
type Interface interface {
	Merge(parts [][]byte) ([]byte, error)
}

// CollectionMerger merges decoded FeatureCollections.
type CollectionMerger interface {
	MergeCollections(parts []model.FeatureCollection) model.FeatureCollection
}
