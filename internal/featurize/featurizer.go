package featurize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/logger"
	"github.com/spigell/profile-featurizer/internal/multilabel"
	"github.com/spigell/profile-featurizer/internal/schema"
	"github.com/spigell/profile-featurizer/internal/temporal"
)

// Featurizer turns preprocessed frames into indicator matrices. It owns one
// multi-label encoder per encoded group; date groups are stateless.
type Featurizer struct {
	schema   *schema.Schema
	temporal *temporal.Featurizer
	encoders map[string]*multilabel.Encoder
	log      *zap.Logger
}

func NewFeaturizer(s *schema.Schema, parser temporal.Parser, grid temporal.YearGrid, log *zap.Logger) (*Featurizer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f := &Featurizer{
		schema:   s,
		temporal: &temporal.Featurizer{Parser: parser, Grid: grid, Logger: log},
		encoders: make(map[string]*multilabel.Encoder),
		log:      log,
	}
	for _, g := range s.Groups() {
		if FeaturizeKind(g) != KindMultiLabelEncode {
			continue
		}
		enc, err := multilabel.NewEncoder(g.Encoding)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}
		f.encoders[g.Name] = enc
	}
	return f, nil
}

// Fit learns the vocabulary of every encoded group from a preprocessed frame.
// A second Fit replaces all vocabularies.
func (f *Featurizer) Fit(in *dataset.Frame) {
	for _, g := range f.schema.Groups() {
		enc, ok := f.encoders[g.Name]
		if !ok {
			continue
		}
		voc := enc.Fit(Select(g, in))
		logger.WithFields(f.log, logger.GroupFields(g.Name, StageFit)...).
			Info("vocabulary fitted", zap.Int("tokens", voc.Len()))
	}
}

// Transform encodes a preprocessed frame. Every encoded group must be fitted
// or restored first.
func (f *Featurizer) Transform(ctx context.Context, in *dataset.Frame) (*dataset.Matrix, error) {
	return assemble(ctx, f.schema, in, StageTransform, f.log,
		func(_ context.Context, g schema.FeatureGroup, selected *dataset.Frame) (*dataset.Matrix, error) {
			switch FeaturizeKind(g) {
			case KindTemporalFeaturize:
				return f.temporal.Transform(selected), nil
			case KindMultiLabelEncode:
				enc, ok := f.encoders[g.Name]
				if !ok {
					return nil, multilabel.ErrUninitialized
				}
				return enc.Transform(selected)
			default:
				return nil, fmt.Errorf("unsupported featurize transformer for %s", g.Name)
			}
		},
		dataset.HStackMatrices,
	)
}

func (f *Featurizer) FitTransform(ctx context.Context, in *dataset.Frame) (*dataset.Matrix, error) {
	f.Fit(in)
	return f.Transform(ctx, in)
}

// States serializes every encoder keyed by group name.
func (f *Featurizer) States() (map[string][]byte, error) {
	out := make(map[string][]byte, len(f.encoders))
	for name, enc := range f.encoders {
		blob, err := enc.State()
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", name, err)
		}
		out[name] = blob
	}
	return out, nil
}

// Restore replaces every encoder with its persisted state. A missing state
// leaves the featurizer unusable and is reported as ErrUninitialized.
func (f *Featurizer) Restore(states map[string][]byte) error {
	restored := make(map[string]*multilabel.Encoder, len(f.encoders))
	for name, current := range f.encoders {
		blob, ok := states[name]
		if !ok {
			return fmt.Errorf("group %s: %w", name, multilabel.ErrUninitialized)
		}
		enc, err := multilabel.Restore(blob)
		if err != nil {
			return fmt.Errorf("group %s: %w", name, err)
		}
		if enc.Mode() != current.Mode() {
			return fmt.Errorf("group %s: state mode %q does not match schema encoding %q", name, enc.Mode(), current.Mode())
		}
		restored[name] = enc
	}
	f.encoders = restored
	return nil
}

// Groups lists the names of groups that carry encoder state.
func (f *Featurizer) Groups() []string {
	var out []string
	for _, g := range f.schema.Groups() {
		if _, ok := f.encoders[g.Name]; ok {
			out = append(out, g.Name)
		}
	}
	return out
}
