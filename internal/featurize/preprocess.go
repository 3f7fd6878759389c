package featurize

import (
	"context"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/normalize"
	"github.com/spigell/profile-featurizer/internal/record"
	"github.com/spigell/profile-featurizer/internal/schema"
)

// Preprocessor normalizes free-text groups and passes the rest through.
type Preprocessor struct {
	schema     *schema.Schema
	normalizer *normalize.Normalizer
	log        *zap.Logger
	progress   io.Writer
}

type PreprocessorOption func(*Preprocessor)

// WithProgress renders a progress bar of normalized cells to w.
func WithProgress(w io.Writer) PreprocessorOption {
	return func(p *Preprocessor) {
		p.progress = w
	}
}

func NewPreprocessor(s *schema.Schema, n *normalize.Normalizer, log *zap.Logger, opts ...PreprocessorOption) *Preprocessor {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Preprocessor{schema: s, normalizer: n, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preprocess returns the schema columns of in with every text group normalized.
func (p *Preprocessor) Preprocess(ctx context.Context, in *dataset.Frame) (*dataset.Frame, error) {
	bar := p.newBar(in.Len())

	return assemble(ctx, p.schema, in, StagePreprocess, p.log,
		func(ctx context.Context, g schema.FeatureGroup, selected *dataset.Frame) (*dataset.Frame, error) {
			switch PreprocessKind(g) {
			case KindIdentity:
				return selected, nil
			case KindTextNormalize:
				return p.normalizeGroup(ctx, g, selected, bar)
			default:
				return nil, fmt.Errorf("unsupported preprocess transformer for %s", g.Name)
			}
		},
		dataset.HStackFrames,
	)
}

func (p *Preprocessor) normalizeGroup(ctx context.Context, g schema.FeatureGroup, selected *dataset.Frame, bar *progressbar.ProgressBar) (*dataset.Frame, error) {
	out := &dataset.Frame{Columns: selected.Columns, Rows: make([]record.RawRow, selected.Len())}
	for i := range out.Rows {
		out.Rows[i] = make(record.RawRow, len(selected.Columns))
	}

	for _, col := range selected.Columns {
		cells, err := p.normalizer.NormalizeColumn(ctx, g.Normalize, selected.Column(col))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		for i, cell := range cells {
			out.Rows[i][col] = cell
		}
		if bar != nil {
			if err := bar.Add(len(cells)); err != nil {
				p.log.Warn("failed to update progress bar", zap.Error(err))
			}
		}
	}
	return out, nil
}

func (p *Preprocessor) newBar(rows int) *progressbar.ProgressBar {
	if p.progress == nil {
		return nil
	}

	total := 0
	for _, g := range p.schema.Groups() {
		if PreprocessKind(g) == KindTextNormalize {
			total += rows * len(g.Columns())
		}
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.progress),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("normalizing cells"),
	)
}
