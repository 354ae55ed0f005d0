package geonorm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

// PointToGeometry converts a geo point into a GeoJSON Point with
// [lon, lat] coordinates.
func PointToGeometry(p model.GeoPoint) (model.Geometry, error) {
	pt, err := pointCoords(p)
	if err != nil {
		return model.Geometry{}, err
	}
	return model.PointGeometry(pt), nil
}

func pointCoords(p model.GeoPoint) (orb.Point, error) {
	switch p.Encoding {
	case model.PointText:
		// text is "lat,lon"; without a comma it is a geohash
		parts := strings.Split(p.Text, ",")
		if len(parts) == 1 {
			return orb.Point{}, fmt.Errorf("%w: geohash point %q", ErrUnsupportedEncoding, p.Text)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return orb.Point{}, fmt.Errorf("%w: lat in %q: %v", ErrInvalidPoint, p.Text, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return orb.Point{}, fmt.Errorf("%w: lon in %q: %v", ErrInvalidPoint, p.Text, err)
		}
		return orb.Point{lon, lat}, nil
	case model.PointPair, model.PointRecord:
		return orb.Point{p.Lon, p.Lat}, nil
	default:
		return orb.Point{}, fmt.Errorf("%w: point encoding %s", ErrUnsupportedEncoding, p.Encoding)
	}
}
