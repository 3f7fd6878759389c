package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/featurize"
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Learn encoder vocabularies from a preprocessed training set and write its feature matrix",
	Run: func(_ *cobra.Command, _ []string) {
		fit()
	},
}

var (
	fitInput  string
	fitOutput string
)

func init() {
	rootCmd.AddCommand(fitCmd)

	fitCmd.Flags().StringVarP(&fitInput, "input", "i", "data/preprocessed.csv", "output of the preprocess command")
	fitCmd.Flags().StringVarP(&fitOutput, "output", "o", "data/features.csv", "where to write labels followed by encoded features")
}

func fit() {
	ctx := context.Background()
	logger, config := bootstrap()

	s, err := loadSchema(config)
	if err != nil {
		logger.Fatal("loading schema", zap.Error(err))
	}

	feat, err := newFeaturizer(config, s, logger)
	if err != nil {
		logger.Fatal("building featurizer", zap.Error(err))
	}

	in, err := dataset.ReadCSVFile(fitInput)
	if err != nil {
		logger.Fatal("reading preprocessed set", zap.String("path", fitInput), zap.Error(err))
	}

	m, err := feat.FitTransform(ctx, in)
	if err != nil {
		logger.Fatal("fitting encoders", zap.Error(err))
	}

	states, err := feat.States()
	if err != nil {
		logger.Fatal("serializing encoders", zap.Error(err))
	}

	if err := saveStates(ctx, config, states); err != nil {
		logger.Fatal("saving encoder state", zap.Error(err))
	}
	logger.Info("encoder state saved", zap.Strings("groups", feat.Groups()))

	if err := writeFitOutput(fitOutput, in, config.Labels, m); err != nil {
		logger.Fatal("writing feature matrix", zap.String("path", fitOutput), zap.Error(err))
	}

	logger.Info("feature matrix written",
		zap.String("path", fitOutput),
		zap.Int("rows", m.Len()),
		zap.Int("features", m.Width()),
	)
}

// saveStates opens the configured store, saves states and closes it.
func saveStates(ctx context.Context, config *Config, states map[string][]byte) error {
	st, err := openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer st.Close()

	return st.Save(ctx, states)
}

// writeFitOutput writes the label columns of in followed by the sanitized
// encoded columns of m.
func writeFitOutput(path string, in *dataset.Frame, labels []string, m *dataset.Matrix) error {
	return dataset.WriteLabeledCSVFile(path, in.Select(labels), featurize.Sanitized(m))
}
