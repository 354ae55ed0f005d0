package geonorm

import (
	"fmt"
	"math"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

// longitudes past one wrap on either side are rejected
const maxWrapLon = 540.0

// ExtentToEnvelopes splits an extent that crosses the dateline into
// envelopes that do not. A non-crossing extent yields a single envelope and
// a span of a full turn or more yields the whole globe.
// Extents lying entirely east of 180 or west of -180 are not corrected.
func ExtentToEnvelopes(e model.MapExtent) ([]model.Envelope, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.MaxLon-e.MinLon >= 360 {
		e.MinLon, e.MaxLon = -180, 180
	}
	if math.Abs(e.MinLon) > maxWrapLon || math.Abs(e.MaxLon) > maxWrapLon {
		return nil, fmt.Errorf("%w: longitude beyond ±%g in %s", ErrInvalidExtent, maxWrapLon, e)
	}
	return appendEnvelopes(make([]model.Envelope, 0, 2), e), nil
}

func appendEnvelopes(dst []model.Envelope, e model.MapExtent) []model.Envelope {
	switch {
	case e.MaxLon > 180 && e.MinLon < -180:
		e.MinLon, e.MaxLon = -180, 180
		return appendEnvelopes(dst, e)

	case e.MaxLon > 180:
		// eastward overflow wraps into the western hemisphere
		east, west := e, e
		east.MaxLon = 180
		west.MinLon = -180
		west.MaxLon = -180 + (e.MaxLon - 180)
		dst = appendEnvelopes(dst, east)
		return appendEnvelopes(dst, west)

	case e.MinLon < -180:
		east, west := e, e
		east.MinLon = 180 - (math.Abs(e.MinLon) - 180)
		east.MaxLon = 180
		west.MinLon = -180
		dst = appendEnvelopes(dst, east)
		return appendEnvelopes(dst, west)

	default:
		return append(dst, model.NewEnvelope(e))
	}
}
