package geonorm

import (
	"errors"
	"testing"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

func mustParsePoint(t *testing.T, raw string) model.GeoPoint {
	t.Helper()
	p, err := model.ParseGeoPoint([]byte(raw))
	if err != nil {
		t.Fatalf("ParseGeoPoint(%s): %v", raw, err)
	}
	return p
}

func TestPointToGeometry_EncodingsAgree(t *testing.T) {
	inputs := map[string]string{
		"text":   `"41.12,-71.34"`,
		"pair":   `[-71.34,41.12]`,
		"record": `{"lat":41.12,"lon":-71.34}`,
	}
	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			g, err := PointToGeometry(mustParsePoint(t, raw))
			if err != nil {
				t.Fatalf("PointToGeometry: %v", err)
			}
			if g.Type != "Point" {
				t.Fatalf("type=%q want Point", g.Type)
			}
			if got, want := string(g.Coordinates), `[-71.34,41.12]`; got != want {
				t.Fatalf("coordinates=%s want %s", got, want)
			}
		})
	}
}

func TestPointToGeometry_TextToleratesWhitespace(t *testing.T) {
	g, err := PointToGeometry(model.TextPoint(" 10 , 20 "))
	if err != nil {
		t.Fatalf("PointToGeometry: %v", err)
	}
	if got := string(g.Coordinates); got != `[20,10]` {
		t.Fatalf("coordinates=%s want [20,10]", got)
	}
}

func TestPointToGeometry_GeohashFails(t *testing.T) {
	for _, gh := range []string{"drm3btev3e86", "u4pruydqqvj", ""} {
		_, err := PointToGeometry(model.TextPoint(gh))
		if !errors.Is(err, ErrUnsupportedEncoding) {
			t.Fatalf("%q: err=%v want ErrUnsupportedEncoding", gh, err)
		}
	}
}

func TestPointToGeometry_BadNumbers(t *testing.T) {
	for _, s := range []string{"abc,1", "1,abc", "1,"} {
		_, err := PointToGeometry(model.TextPoint(s))
		if !errors.Is(err, ErrInvalidPoint) {
			t.Fatalf("%q: err=%v want ErrInvalidPoint", s, err)
		}
	}
}

func TestPointToGeometry_UnresolvedEncodingFails(t *testing.T) {
	if _, err := PointToGeometry(model.GeoPoint{}); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("err=%v want ErrUnsupportedEncoding", err)
	}
}
