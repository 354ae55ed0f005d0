// Package keys derives stable identifiers for features and envelopes.
package keys

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

// FeatureID fingerprints a raw hit that carries no _id. Insignificant
// whitespace does not change the result.
func FeatureID(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		// not valid JSON; hash the bytes as they are
		return fmt.Sprintf("h:%016x", xxhash.Sum64(raw))
	}
	return fmt.Sprintf("h:%016x", xxhash.Sum64(buf.Bytes()))
}

// EnvelopeKey renders an envelope as "env:<minLon>:<maxLat>:<maxLon>:<minLat>:e=<hash>".
func EnvelopeKey(env model.Envelope) string {
	tl, br := env.TopLeft(), env.BottomRight()
	parts := []string{
		formatCoord(tl.Lon()),
		formatCoord(tl.Lat()),
		formatCoord(br.Lon()),
		formatCoord(br.Lat()),
	}
	text := strings.Join(parts, ":")
	sum := xxhash.Sum64String(text)
	return fmt.Sprintf("env:%s:e=%016x", text, sum)
}

// fixed precision keeps -0 and 1e-7 noise from producing distinct keys
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	if s == "-0.000000" {
		s = "0.000000"
	}
	return s
}
