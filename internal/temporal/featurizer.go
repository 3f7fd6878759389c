package temporal

import (
	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/dataset"
)

// Featurizer turns every date-range column of a frame into year indicators.
type Featurizer struct {
	Parser Parser
	Grid   YearGrid
	Logger *zap.Logger
}

// Transform emits Grid.Len() columns per input column, named <column>/<year>,
// concatenated in input column order.
func (f *Featurizer) Transform(in *dataset.Frame) *dataset.Matrix {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	width := f.Grid.Len()
	columns := make([]string, 0, width*len(in.Columns))
	for _, col := range in.Columns {
		columns = append(columns, f.Grid.Columns(col)...)
	}

	out := dataset.NewMatrix(columns, in.Len())
	for c, col := range in.Columns {
		for r, row := range in.Rows {
			raw, present := row.Get(col)
			iv, ok := f.Parser.ParseRange(raw)
			if present && !ok {
				logger.Debug("unparseable date range", zap.String("column", col), zap.String("value", raw))
			}
			copy(out.Rows[r][c*width:(c+1)*width], f.Grid.Indicators(iv, ok))
		}
	}
	return out
}
