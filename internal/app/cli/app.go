// Package cli implements the geonorm command line: hits to GeoJSON, viewport
// filters, dateline envelopes and H3 coverage.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jessevdk/go-flags"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/config"
	"github.com/mohammed-shakir/geo-normalizer/internal/logger"
	h3mapper "github.com/mohammed-shakir/geo-normalizer/internal/mapper/h3"
	"github.com/mohammed-shakir/geo-normalizer/internal/metrics"
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *metrics.Normalizer
	cells   *h3mapper.Mapper

	stdin  io.Reader
	stdout io.Writer

	ctx context.Context
}

func New(cfg config.Config, log *slog.Logger, m *metrics.Normalizer, stdin io.Reader, stdout io.Writer) *App {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
		cells:   h3mapper.New(),
		stdin:   stdin,
		stdout:  stdout,
		ctx:     context.Background(),
	}
}

// Run parses args and executes the selected command. Help output is not an
// error.
func (a *App) Run(ctx context.Context, args []string) error {
	a.ctx = logger.WithComponent(logger.WithBatchID(ctx, ""), "cli")

	parser := a.parser()
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}

func (a *App) parser() *flags.Parser {
	parser := flags.NewNamedParser("geonorm", flags.Default)

	feat := &FeaturesCmd{app: a}
	feat.GeoField = a.cfg.GeoField
	feat.FieldType = string(a.cfg.FieldType)
	feat.H3Res = a.cfg.H3Res
	feat.H3Property = a.cfg.H3Property
	feat.BBox = a.cfg.Output.BBox
	feat.NoDedup = !a.cfg.DedupByID
	feat.Pretty = a.cfg.Output.Pretty

	filt := &FilterCmd{app: a}
	filt.GeoField = a.cfg.GeoField
	filt.FieldType = string(a.cfg.FieldType)
	filt.Pretty = a.cfg.Output.Pretty

	split := &FilterCmd{app: a, split: true}
	split.GeoField = a.cfg.GeoField
	split.FieldType = string(a.cfg.FieldType)
	split.Pretty = a.cfg.Output.Pretty

	env := &EnvelopesCmd{app: a}
	env.Pretty = a.cfg.Output.Pretty

	cells := &CellsCmd{app: a}
	cells.Pretty = a.cfg.Output.Pretty
	if a.cfg.H3Res >= 0 {
		cells.Res = a.cfg.H3Res
	} else {
		cells.Res = 5
	}

	mustAdd(parser, "features", "Convert search hits to a GeoJSON FeatureCollection",
		"Reads hits (a JSON array, a search response or a single hit) from the given files or stdin. Several inputs are merged.", feat)
	mustAdd(parser, "filter", "Build a geo filter from a map extent",
		"Clamps the extent and emits a geo_bounding_box (geo_point) or INTERSECTS envelope (geo_shape) filter.", filt)
	mustAdd(parser, "split-filter", "Build a dateline-aware geo filter from a map extent",
		"Splits a dateline-crossing extent and emits a bool/should over one filter per envelope.", split)
	mustAdd(parser, "envelopes", "Split a map extent into non-crossing envelopes", "", env)
	mustAdd(parser, "cells", "Cover a map extent with H3 cells", "", cells)
	return parser
}

func mustAdd(p *flags.Parser, name, short, long string, data any) {
	if _, err := p.AddCommand(name, short, long, data); err != nil {
		panic(err)
	}
}
