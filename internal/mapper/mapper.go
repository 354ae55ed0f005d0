// Package mapper converts between geographic extents and H3 cells.
package mapper

import (
	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

type Interface interface {
	CellsForExtent(ext model.MapExtent, res int) (model.Cells, error)
	CellsForEnvelope(env model.Envelope, res int) (model.Cells, error)
	CellForPoint(p orb.Point, res int) (string, error)
}
