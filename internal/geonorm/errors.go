// Package geonorm converts search-hit geo values into GeoJSON geometries and
// map viewports into geo query filters.
package geonorm

import (
	"errors"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

var (
	ErrUnsupportedFieldType = model.ErrUnsupportedFieldType
	ErrUnsupportedEncoding  = model.ErrUnsupportedEncoding
	ErrUnsupportedShape     = model.ErrUnsupportedShape
	ErrInvalidExtent        = model.ErrInvalidExtent
	ErrInvalidPoint         = errors.New("invalid point")
)

// ErrorKind returns a short label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFieldType):
		return "field_type"
	case errors.Is(err, ErrUnsupportedEncoding):
		return "encoding"
	case errors.Is(err, ErrUnsupportedShape):
		return "shape"
	case errors.Is(err, ErrInvalidPoint):
		return "invalid_point"
	case errors.Is(err, ErrInvalidExtent):
		return "extent"
	default:
		return "other"
	}
}
