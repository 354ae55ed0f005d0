package geonorm

import (
	"fmt"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

// search engine shape tags that differ from GeoJSON only by case; anything
// absent passes through unchanged
var shapeTypes = map[string]string{
	"point":              "Point",
	"linestring":         "LineString",
	"polygon":            "Polygon",
	"multipoint":         "MultiPoint",
	"multilinestring":    "MultiLineString",
	"geometrycollection": "GeometryCollection",
}

func normalizeShapeType(t string) string {
	if std, ok := shapeTypes[t]; ok {
		return std
	}
	return t
}

// ShapeToGeometry converts a geo shape into a GeoJSON geometry. The input
// record is not modified.
func ShapeToGeometry(s model.GeoShape) (model.Geometry, error) {
	switch s.Encoding {
	case model.ShapeRecord:
	case model.ShapeText:
		return model.Geometry{}, fmt.Errorf("%w: WKT shape", ErrUnsupportedEncoding)
	default:
		return model.Geometry{}, fmt.Errorf("%w: shape encoding %d", ErrUnsupportedEncoding, s.Encoding)
	}

	g := s.Record.Clone()
	g.Type = normalizeShapeType(g.Type)

	switch g.Type {
	case "envelope", "circle":
		return model.Geometry{}, fmt.Errorf("%w: unable to convert to geojson, %s not supported", ErrUnsupportedShape, g.Type)
	}
	return g, nil
}
