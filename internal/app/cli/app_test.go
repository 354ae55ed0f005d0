package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/config"
	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

func testConfig() config.Config {
	return config.Config{
		GeoField:   "location",
		FieldType:  model.FieldGeoPoint,
		H3Res:      -1,
		H3Property: "h3_cell",
		DedupByID:  true,
	}
}

func run(t *testing.T, cfg config.Config, stdin string, args ...string) gjson.Result {
	t.Helper()
	var out bytes.Buffer
	app := New(cfg, nil, nil, strings.NewReader(stdin), &out)
	if err := app.Run(context.Background(), args); err != nil {
		t.Fatalf("Run(%v): %v", args, err)
	}
	if !gjson.Valid(out.String()) {
		t.Fatalf("output is not JSON: %q", out.String())
	}
	return gjson.Parse(out.String())
}

func TestFeatures_Stdin(t *testing.T) {
	in := `{"hits":{"hits":[
		{"_id":"a","_source":{"location":"41.12,-71.34","name":"x"}},
		{"_id":"b","_source":{"name":"no geo"}},
		{"_id":"c","_source":{"location":[-71.34,41.12]}}
	]}}`
	res := run(t, testConfig(), in, "features")

	if res.Get("type").String() != "FeatureCollection" {
		t.Fatalf("type=%s", res.Get("type"))
	}
	if n := res.Get("features.#").Int(); n != 2 {
		t.Fatalf("features=%d want 2", n)
	}
	if got := res.Get("features.0.geometry.coordinates").Raw; got != "[-71.34,41.12]" {
		t.Fatalf("coordinates=%s", got)
	}
	if res.Get("features.0.properties.name").String() != "x" {
		t.Fatalf("properties=%s", res.Get("features.0.properties").Raw)
	}
	if res.Get("bbox").Exists() {
		t.Fatalf("bbox must be omitted by default")
	}
}

func TestFeatures_H3AndBBox(t *testing.T) {
	in := `[{"_id":"a","_source":{"location":{"lat":41.12,"lon":-71.34}}}]`
	res := run(t, testConfig(), in, "features", "--h3-res", "7", "--bbox")

	if cell := res.Get("features.0.properties.h3_cell").String(); len(cell) != 15 {
		t.Fatalf("h3_cell=%q", cell)
	}
	if got := res.Get("bbox").Raw; got != "[-71.34,41.12,-71.34,41.12]" {
		t.Fatalf("bbox=%s", got)
	}
}

func TestFeatures_MergeFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	if err := os.WriteFile(a, []byte(`[{"_id":"1","_source":{"location":"1,2"}}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte(`[{"_id":"1","_source":{"location":"1,2"}},{"_id":"2","_source":{"location":"3,4"}}]`), 0o600); err != nil {
		t.Fatal(err)
	}

	res := run(t, testConfig(), "", "features", a, b)
	if n := res.Get("features.#").Int(); n != 2 {
		t.Fatalf("dedup merge features=%d want 2", n)
	}
	res = run(t, testConfig(), "", "features", "--no-dedup", a, b)
	if n := res.Get("features.#").Int(); n != 3 {
		t.Fatalf("merge features=%d want 3", n)
	}
}

func TestFeatures_MergesFeatureCollectionDocuments(t *testing.T) {
	dir := t.TempDir()
	hits := filepath.Join(dir, "hits.json")
	doc := filepath.Join(dir, "doc.geojson")
	if err := os.WriteFile(hits, []byte(`[{"_id":"1","_source":{"location":"1,2"}},{"_id":2,"_source":{"location":"3,4"}}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	body := `{"type":"FeatureCollection","bbox":[-10,-10,10,10],"features":[` +
		`{"type":"Feature","id":"1","geometry":null,"properties":{}},` +
		`{"type":"Feature","id":"2","geometry":null,"properties":{"k":"v"}}]}`
	if err := os.WriteFile(doc, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	res := run(t, testConfig(), "", "features", hits, doc)
	// "1" repeats, the numeric 2 and the string "2" do not
	if n := res.Get("features.#").Int(); n != 3 {
		t.Fatalf("features=%d want 3: %s", n, res.Raw)
	}
	if got := res.Get("features.2.properties.k").String(); got != "v" {
		t.Fatalf("document feature not kept: %s", res.Get("features.2").Raw)
	}
	if got := res.Get("bbox").Raw; got != "[-10,-10,10,10]" {
		t.Fatalf("bbox=%s", got)
	}

	bad := filepath.Join(dir, "bad.geojson")
	if err := os.WriteFile(bad, []byte(`{"type":"FeatureCollection","features":[{"type":"Polygon"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	app := New(testConfig(), nil, nil, strings.NewReader(""), &out)
	if err := app.Run(context.Background(), []string{"features", bad}); err == nil {
		t.Fatalf("want error for malformed document")
	}
}

func TestFeatures_ShapeAndOut(t *testing.T) {
	cfg := testConfig()
	cfg.FieldType = model.FieldGeoShape
	out := filepath.Join(t.TempDir(), "out.json")

	var stdout bytes.Buffer
	in := `[{"_id":"s","_source":{"location":{"type":"linestring","coordinates":[[0,0],[1,1]]}}}]`
	app := New(cfg, nil, nil, strings.NewReader(in), &stdout)
	if err := app.Run(context.Background(), []string{"features", "-o", out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout must be empty with --out, got %q", stdout.String())
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if typ := gjson.GetBytes(b, "features.0.geometry.type").String(); typ != "LineString" {
		t.Fatalf("geometry type=%s", typ)
	}
}

func TestFeatures_ConversionError(t *testing.T) {
	var out bytes.Buffer
	app := New(testConfig(), nil, nil, strings.NewReader(`[{"_source":{"location":"a,b"}}]`), &out)
	err := app.Run(context.Background(), []string{"features"})
	if err == nil || !strings.Contains(err.Error(), "hit 0") {
		t.Fatalf("want hit 0 error, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	res := run(t, testConfig(), "", "filter", "--extent=-200,-10,20,95")
	bb := res.Get("geo_bounding_box.location")
	if bb.Get("top_left.lon").Float() != -180 || bb.Get("top_left.lat").Float() != 90 {
		t.Fatalf("top_left=%s", bb.Get("top_left").Raw)
	}
	if bb.Get("bottom_right.lon").Float() != 20 || bb.Get("bottom_right.lat").Float() != -10 {
		t.Fatalf("bottom_right=%s", bb.Get("bottom_right").Raw)
	}

	res = run(t, testConfig(), "", "filter", "-t", "geo_shape", "-f", "area", "-e", "0,0,10,10")
	q := res.Get("geo_shape.area")
	if q.Get("relation").String() != "INTERSECTS" || q.Get("shape.type").String() != "envelope" {
		t.Fatalf("shape query=%s", q.Raw)
	}
	if got := q.Get("shape.coordinates").Raw; got != "[[0,10],[10,0]]" {
		t.Fatalf("coordinates=%s", got)
	}
}

func TestSplitFilter(t *testing.T) {
	res := run(t, testConfig(), "", "split-filter", "-e", "170,-10,190,10")
	should := res.Get("bool.should")
	if should.Get("#").Int() != 2 || res.Get("bool.minimum_should_match").Int() != 1 {
		t.Fatalf("bool=%s", res.Get("bool").Raw)
	}
	if should.Get("1.geo_bounding_box.location.bottom_right.lon").Float() != -170 {
		t.Fatalf("second clause=%s", should.Get("1").Raw)
	}
}

func TestEnvelopes_ExtentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extent.yaml")
	body := "minLon: -190\nmaxLon: -170\nminLat: -5\nmaxLat: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	res := run(t, testConfig(), "", "envelopes", "--extent-file", path)
	if n := res.Get("#").Int(); n != 2 {
		t.Fatalf("envelopes=%d want 2: %s", n, res.Raw)
	}
	if got := res.Get("0.coordinates").Raw; got != "[[170,5],[180,-5]]" {
		t.Fatalf("east envelope=%s", got)
	}
	if got := res.Get("1.coordinates").Raw; got != "[[-180,5],[-170,-5]]" {
		t.Fatalf("west envelope=%s", got)
	}
}

func TestEnvelopes_InfiniteExtentFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extent.yaml")
	body := "minLon: 170\nmaxLon: .inf\nminLat: -5\nmaxLat: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	app := New(testConfig(), nil, nil, strings.NewReader(""), &out)
	err := app.Run(context.Background(), []string{"envelopes", "--extent-file", path})
	if !errors.Is(err, model.ErrInvalidExtent) {
		t.Fatalf("err=%v want ErrInvalidExtent", err)
	}
}

func TestCells(t *testing.T) {
	res := run(t, testConfig(), "", "cells", "-r", "3", "-e", "10,40,12,42")
	arr := res.Array()
	if len(arr) == 0 {
		t.Fatalf("no cells")
	}
	cells := make([]string, len(arr))
	for i, c := range arr {
		cells[i] = c.String()
	}
	if !sort.StringsAreSorted(cells) {
		t.Fatalf("cells not sorted: %v", cells)
	}
}

func TestRun_Errors(t *testing.T) {
	cases := [][]string{
		{"nope"},
		{"filter"},
		{"filter", "-e", "1,2,3"},
		{"filter", "-t", "geo_line", "-e", "0,0,1,1"},
		{"filter", "-e", "0,0,1,1", "--extent-file", "x.yaml"},
		{"cells", "-r", "16", "-e", "0,0,1,1"},
		{"envelopes", "-e", "170,-10,inf,10"},
		{"split-filter", "-e", "170,-10,NaN,10"},
		{"cells", "-r", "3", "-e", "170,-10,inf,10"},
	}
	for _, args := range cases {
		var out bytes.Buffer
		app := New(testConfig(), nil, nil, strings.NewReader(""), &out)
		if err := app.Run(context.Background(), args); err == nil {
			t.Fatalf("Run(%v) want error", args)
		}
	}
}

func TestRun_HelpIsNotError(t *testing.T) {
	var out bytes.Buffer
	app := New(testConfig(), nil, nil, strings.NewReader(""), &out)
	if err := app.Run(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("help: %v", err)
	}
}

func TestExtractHits(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{`[]`, 0},
		{`[{"_source":{}},{"_source":{}}]`, 2},
		{`{"hits":{"hits":[{"_source":{}}]}}`, 1},
		{`{"_id":"x","_source":{}}`, 1},
	}
	for _, tc := range cases {
		hits, err := ExtractHits([]byte(tc.in))
		if err != nil {
			t.Fatalf("ExtractHits(%s): %v", tc.in, err)
		}
		if len(hits) != tc.want {
			t.Fatalf("ExtractHits(%s)=%d want %d", tc.in, len(hits), tc.want)
		}
	}
	for _, in := range []string{`{`, `{"a":1}`, `"text"`} {
		if _, err := ExtractHits([]byte(in)); err == nil {
			t.Fatalf("ExtractHits(%s) want error", in)
		}
	}
}
