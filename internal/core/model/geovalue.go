package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

type PointEncoding int

const (
	PointText   PointEncoding = iota + 1 // "lat,lon" or a geohash
	PointPair                            // [lon, lat]
	PointRecord                          // {"lat": .., "lon": ..}
)

func (e PointEncoding) String() string {
	switch e {
	case PointText:
		return "text"
	case PointPair:
		return "pair"
	case PointRecord:
		return "record"
	default:
		return "unknown"
	}
}

// GeoPoint is a geo point value with its encoding resolved. Text is only set
// for PointText; Lat/Lon are only set for the other encodings.
type GeoPoint struct {
	Encoding PointEncoding
	Text     string
	Lat, Lon float64
}

func TextPoint(s string) GeoPoint           { return GeoPoint{Encoding: PointText, Text: s} }
func PairPoint(lon, lat float64) GeoPoint   { return GeoPoint{Encoding: PointPair, Lon: lon, Lat: lat} }
func RecordPoint(lat, lon float64) GeoPoint { return GeoPoint{Encoding: PointRecord, Lat: lat, Lon: lon} }

// ParseGeoPoint resolves the encoding of a raw JSON point value.
func ParseGeoPoint(raw []byte) (GeoPoint, error) {
	r := gjson.ParseBytes(raw)
	switch {
	case r.Type == gjson.String:
		return TextPoint(r.String()), nil
	case r.IsArray():
		arr := r.Array()
		if len(arr) < 2 || arr[0].Type != gjson.Number || arr[1].Type != gjson.Number {
			return GeoPoint{}, fmt.Errorf("%w: point array must start with [lon, lat] numbers", ErrUnsupportedEncoding)
		}
		return PairPoint(arr[0].Float(), arr[1].Float()), nil
	case r.IsObject():
		lat, err := numberMember(r, "lat")
		if err != nil {
			return GeoPoint{}, err
		}
		lon, err := numberMember(r, "lon")
		if err != nil {
			return GeoPoint{}, err
		}
		return RecordPoint(lat, lon), nil
	default:
		return GeoPoint{}, fmt.Errorf("%w: geo point of JSON type %s", ErrUnsupportedEncoding, r.Type)
	}
}

// accepts numbers and numeric strings, as the search engine does
func numberMember(r gjson.Result, name string) (float64, error) {
	v := r.Get(name)
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: point %s %q is not a number", ErrUnsupportedEncoding, name, v.Str)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: point record missing numeric %q", ErrUnsupportedEncoding, name)
	}
}

type ShapeEncoding int

const (
	ShapeText   ShapeEncoding = iota + 1 // WKT
	ShapeRecord                          // GeoJSON-like object
)

// GeoShape is a geo shape value with its encoding resolved.
type GeoShape struct {
	Encoding ShapeEncoding
	Text     string
	Record   Geometry
}

func TextShape(wkt string) GeoShape    { return GeoShape{Encoding: ShapeText, Text: wkt} }
func RecordShape(g Geometry) GeoShape { return GeoShape{Encoding: ShapeRecord, Record: g} }

// ParseGeoShape resolves the encoding of a raw JSON shape value.
func ParseGeoShape(raw []byte) (GeoShape, error) {
	r := gjson.ParseBytes(raw)
	switch {
	case r.Type == gjson.String:
		return TextShape(r.String()), nil
	case r.IsObject():
		var g Geometry
		if err := json.Unmarshal([]byte(r.Raw), &g); err != nil {
			return GeoShape{}, fmt.Errorf("parse shape: %w", err)
		}
		return RecordShape(g), nil
	default:
		return GeoShape{}, fmt.Errorf("%w: geo shape of JSON type %s", ErrUnsupportedEncoding, r.Type)
	}
}
