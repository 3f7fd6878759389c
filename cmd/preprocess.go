package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/dataset"
	"github.com/spigell/profile-featurizer/internal/featurize"
	"github.com/spigell/profile-featurizer/internal/logger"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Normalize and translate the text columns of a labeled training set",
	Run: func(cmd *cobra.Command, _ []string) {
		preprocess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().StringP("input", "i", "data/profiles.csv", "flattened training set with label columns")
	preprocessCmd.Flags().StringP("output", "o", "data/preprocessed.csv", "where to write the normalized training set")
	preprocessCmd.Flags().Bool("progress", true, "show a progress bar on stderr")
}

// bootstrap builds the logger and reads the config the way every command needs it.
func bootstrap() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the "+app, zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func preprocess(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := bootstrap()

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	progress, _ := cmd.Flags().GetBool("progress")

	s, err := loadSchema(config)
	if err != nil {
		logger.Fatal("loading schema", zap.Error(err))
	}

	var opts []featurize.PreprocessorOption
	if progress {
		opts = append(opts, featurize.WithProgress(os.Stderr))
	}

	pre, err := newPreprocessor(ctx, config, s, logger, opts...)
	if err != nil {
		logger.Fatal("building preprocessor", zap.Error(err))
	}

	in, err := dataset.ReadCSVFile(input)
	if err != nil {
		logger.Fatal("reading training set", zap.String("path", input), zap.Error(err))
	}
	logger.Info("read training set", zap.String("path", input), zap.Int("rows", in.Len()))

	features, err := pre.Preprocess(ctx, in)
	if err != nil {
		logger.Fatal("preprocessing", zap.Error(err))
	}

	out, err := dataset.HStackFrames(in.Select(config.Labels), features)
	if err != nil {
		logger.Fatal("joining labels", zap.Error(err))
	}

	if err := dataset.WriteCSVFile(output, out); err != nil {
		logger.Fatal("writing preprocessed set", zap.String("path", output), zap.Error(err))
	}

	logger.Info("preprocessed training set written",
		zap.String("path", output),
		zap.Int("rows", out.Len()),
		zap.Int("columns", len(out.Columns)),
	)
}
