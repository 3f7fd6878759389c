package featurize

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/logger"
	"github.com/spigell/profile-featurizer/internal/schema"
)

// Kind is the transformer a group is driven through in one stage.
type Kind string

const (
	KindIdentity          Kind = "identity"
	KindTextNormalize     Kind = "text_normalize"
	KindTemporalFeaturize Kind = "temporal_featurize"
	KindMultiLabelEncode  Kind = "multi_label_encode"
)

const (
	StagePreprocess = "preprocess"
	StageFit        = "fit"
	StageTransform  = "transform"
)

// PreprocessKind selects the pre-vocabulary transformer of g.
func PreprocessKind(g schema.FeatureGroup) Kind {
	if g.Normalize == schema.PolicyNone {
		return KindIdentity
	}
	return KindTextNormalize
}

// FeaturizeKind selects the vocabulary-aware transformer of g.
func FeaturizeKind(g schema.FeatureGroup) Kind {
	if g.Encoding == schema.EncodingYears {
		return KindTemporalFeaturize
	}
	return KindMultiLabelEncode
}

// Select projects frame onto the columns of g. Missing columns are null.
func Select(g schema.FeatureGroup, frame *dataset.Frame) *dataset.Frame {
	return frame.Select(g.Columns())
}

// assemble runs every group of s through apply in declaration order and
// joins the results column-wise.
func assemble[T any](
	ctx context.Context,
	s *schema.Schema,
	in *dataset.Frame,
	stage string,
	log *zap.Logger,
	apply func(ctx context.Context, g schema.FeatureGroup, selected *dataset.Frame) (T, error),
	join func(parts ...T) (T, error),
) (T, error) {
	var zero T

	groups := s.Groups()
	parts := make([]T, 0, len(groups))
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		part, err := apply(ctx, g, Select(g, in))
		if err != nil {
			return zero, fmt.Errorf("group %s: %w", g.Name, err)
		}
		logger.WithFields(log, logger.GroupFields(g.Name, stage)...).Debug("group assembled")
		parts = append(parts, part)
	}

	return join(parts...)
}

var columnReplacer = strings.NewReplacer("[", "", "]", "", "<", "", ",", "")

// SanitizeColumn drops characters that classifier libraries reject in feature names.
func SanitizeColumn(name string) string {
	return columnReplacer.Replace(name)
}

// Sanitized returns m with every column name passed through SanitizeColumn.
// Names that collide after sanitizing get a numeric suffix in column order,
// so every output column stays addressable.
func Sanitized(m *dataset.Matrix) *dataset.Matrix {
	columns := make([]string, len(m.Columns))
	taken := make(map[string]struct{}, len(m.Columns))
	for i, c := range m.Columns {
		name := SanitizeColumn(c)
		if _, dup := taken[name]; dup {
			base := name
			for n := 2; ; n++ {
				name = base + "_" + strconv.Itoa(n)
				if _, dup := taken[name]; !dup {
					break
				}
			}
		}
		taken[name] = struct{}{}
		columns[i] = name
	}
	return &dataset.Matrix{Columns: columns, Rows: m.Rows}
}
