package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/geo-normalizer/internal/aggregate/geojsonagg"
	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
	"github.com/mohammed-shakir/geo-normalizer/internal/geonorm"
	"github.com/mohammed-shakir/geo-normalizer/internal/keys"
	"github.com/mohammed-shakir/geo-normalizer/internal/logger"
)

type FieldOpts struct {
	GeoField  string `short:"f" long:"geo-field" description:"Name of the geo field in _source"`
	FieldType string `short:"t" long:"field-type" choice:"geo_point" choice:"geo_shape" description:"Mapping type of the geo field"`
}

type FeaturesCmd struct {
	FieldOpts
	OutputOpts

	H3Res      int    `long:"h3-res" description:"Annotate point features with their H3 cell at this resolution (negative disables)"`
	H3Property string `long:"h3-property" description:"Property name for the H3 cell"`
	BBox       bool   `long:"bbox" description:"Include the collection bbox"`
	NoDedup    bool   `long:"no-dedup" description:"Keep features with repeated ids when merging inputs"`

	Args struct {
		Files []string `positional-arg-name:"file"`
	} `positional-args:"yes"`

	app *App
}

func (c *FeaturesCmd) Execute(_ []string) error {
	a := c.app
	ft := model.FieldType(c.FieldType)
	ctx := logger.WithGeoField(a.ctx, c.GeoField, c.FieldType)

	inputs, names, err := a.readInputs(c.Args.Files)
	if err != nil {
		return err
	}

	b := &geonorm.Builder{
		Options: geonorm.Options{H3Res: c.H3Res, H3Property: c.H3Property, WithBBox: c.BBox},
		Metrics: a.metrics,
		Log:     a.log,
	}
	if c.H3Res >= 0 {
		b.Cells = a.cells
	}

	parts := make([]model.FeatureCollection, 0, len(inputs))
	docs := make([][]byte, len(inputs))
	hasDocs := false
	for i, data := range inputs {
		if isFeatureCollection(data) {
			docs[i], hasDocs = data, true
			parts = append(parts, model.FeatureCollection{})
			continue
		}
		hits, err := ExtractHits(data)
		if err != nil {
			return fmt.Errorf("%s: %w", names[i], err)
		}
		fc, diag, err := b.Build(ctx, hits, c.GeoField, ft)
		if err != nil {
			return fmt.Errorf("%s: %w", names[i], err)
		}
		a.log.InfoContext(ctx, "hits converted",
			"input", names[i],
			"hits", diag.TotalIn,
			"features", diag.TotalOut,
			"dropped", diag.Dropped,
			"cells", diag.Cells)
		parts = append(parts, fc)
	}

	agg := geojsonagg.New(!c.NoDedup)
	switch {
	case hasDocs:
		// already-converted collections are merged as documents
		for i := range docs {
			if docs[i] != nil {
				continue
			}
			enc, err := json.Marshal(parts[i])
			if err != nil {
				return fmt.Errorf("%s: marshal: %w", names[i], err)
			}
			docs[i] = enc
		}
		merged, err := agg.Merge(docs)
		if err != nil {
			return err
		}
		c.logMerge(ctx, len(docs), agg.Diagnostics())
		return a.write(c.OutputOpts, json.RawMessage(merged))
	case len(parts) > 1:
		out := agg.MergeCollections(parts)
		c.logMerge(ctx, len(parts), agg.Diagnostics())
		return a.write(c.OutputOpts, out)
	default:
		return a.write(c.OutputOpts, parts[0])
	}
}

func (c *FeaturesCmd) logMerge(ctx context.Context, inputs int, d geojsonagg.Diagnostics) {
	c.app.log.InfoContext(ctx, "inputs merged",
		"inputs", inputs,
		"features_in", d.TotalIn,
		"features_out", d.TotalOut,
		"dedup_by_id", d.DedupByID)
}

type FilterCmd struct {
	FieldOpts
	ExtentOpts
	OutputOpts

	app   *App
	split bool
}

func (c *FilterCmd) Execute(_ []string) error {
	a := c.app
	ext, err := c.load()
	if err != nil {
		return err
	}
	ft := model.FieldType(c.FieldType)

	var f geonorm.Filter
	if c.split {
		f, err = geonorm.SplitExtentFilter(ext, c.GeoField, ft)
	} else {
		f, err = geonorm.ExtentFilter(ext, c.GeoField, ft)
	}
	if err != nil {
		a.metrics.IncError(geonorm.ErrorKind(err))
		return err
	}
	a.log.DebugContext(logger.WithGeoField(a.ctx, c.GeoField, c.FieldType), "filter built",
		"extent", ext.String(), "split", c.split, "clauses", max(len(f.Should), 1))
	return a.write(c.OutputOpts, f)
}

type EnvelopesCmd struct {
	ExtentOpts
	OutputOpts

	app *App
}

func (c *EnvelopesCmd) Execute(_ []string) error {
	a := c.app
	ext, err := c.load()
	if err != nil {
		return err
	}
	envs, err := geonorm.ExtentToEnvelopes(ext)
	if err != nil {
		a.metrics.IncError(geonorm.ErrorKind(err))
		return err
	}
	a.metrics.ObserveEnvelopes(len(envs))
	for _, e := range envs {
		a.log.DebugContext(a.ctx, "envelope", "key", keys.EnvelopeKey(e))
	}
	return a.write(c.OutputOpts, envs)
}

type CellsCmd struct {
	ExtentOpts
	OutputOpts

	Res int `short:"r" long:"res" description:"H3 resolution (0..15)"`

	app *App
}

func (c *CellsCmd) Execute(_ []string) error {
	a := c.app
	ext, err := c.load()
	if err != nil {
		return err
	}
	cells, err := a.cells.CellsForExtent(ext, c.Res)
	if err != nil {
		return err
	}
	a.log.InfoContext(a.ctx, "extent covered", "extent", ext.String(), "res", c.Res, "cells", len(cells))
	return a.write(c.OutputOpts, cells)
}
