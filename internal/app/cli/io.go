package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

type OutputOpts struct {
	Out    string `short:"o" long:"out" description:"Write output to this file instead of stdout"`
	Pretty bool   `long:"pretty" description:"Indent JSON output"`
}

type ExtentOpts struct {
	Extent     string `short:"e" long:"extent" description:"Map extent as minLon,minLat,maxLon,maxLat"`
	ExtentFile string `long:"extent-file" description:"YAML or JSON file with minLon, maxLon, minLat, maxLat"`
}

func (o ExtentOpts) load() (model.MapExtent, error) {
	switch {
	case o.Extent != "" && o.ExtentFile != "":
		return model.MapExtent{}, fmt.Errorf("--extent and --extent-file are mutually exclusive")
	case o.Extent != "":
		return model.ParseExtent(o.Extent)
	case o.ExtentFile != "":
		return loadExtentFile(o.ExtentFile)
	default:
		return model.MapExtent{}, fmt.Errorf("an extent is required (--extent or --extent-file)")
	}
}

// JSON is valid YAML, so one decoder serves both formats.
func loadExtentFile(path string) (model.MapExtent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.MapExtent{}, fmt.Errorf("read extent file: %w", err)
	}
	var ext model.MapExtent
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return model.MapExtent{}, fmt.Errorf("parse extent file %s: %w", path, err)
	}
	if err := ext.Validate(); err != nil {
		return model.MapExtent{}, fmt.Errorf("extent file %s: %w", path, err)
	}
	return ext, nil
}

func (a *App) write(o OutputOpts, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if o.Pretty {
		b = pretty.Pretty(b)
	} else {
		b = append(b, '\n')
	}
	if o.Out != "" {
		if err := os.WriteFile(o.Out, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.Out, err)
		}
		return nil
	}
	_, err = a.stdout.Write(b)
	return err
}

func (a *App) readInputs(files []string) ([][]byte, []string, error) {
	if len(files) == 0 {
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
		return [][]byte{b}, []string{"-"}, nil
	}
	out := make([][]byte, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", f, err)
		}
		out = append(out, b)
	}
	return out, files, nil
}

// isFeatureCollection reports whether an input is a GeoJSON FeatureCollection
// document rather than search hits.
func isFeatureCollection(data []byte) bool {
	root := gjson.ParseBytes(data)
	return root.IsObject() && root.Get("type").String() == model.FeatureCollectionType
}

// ExtractHits accepts a JSON array of hits, a search response carrying
// hits.hits, or a single hit object.
func ExtractHits(data []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("input is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	var arr gjson.Result
	switch {
	case root.IsArray():
		arr = root
	case root.IsObject() && root.Get("hits.hits").IsArray():
		arr = root.Get("hits.hits")
	case root.IsObject() && root.Get("_source").Exists():
		return []json.RawMessage{json.RawMessage(root.Raw)}, nil
	default:
		return nil, fmt.Errorf("input must be an array of hits, a search response or a hit")
	}
	items := arr.Array()
	hits := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		hits = append(hits, json.RawMessage(it.Raw))
	}
	return hits, nil
}
