package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/spigell/profile-featurizer/internal/featurize"
	"github.com/spigell/profile-featurizer/internal/fetch"
	"github.com/spigell/profile-featurizer/internal/normalize"
	"github.com/spigell/profile-featurizer/internal/predict"
	"github.com/spigell/profile-featurizer/internal/schema"
	"github.com/spigell/profile-featurizer/internal/secrets"
	"github.com/spigell/profile-featurizer/internal/store"
	"github.com/spigell/profile-featurizer/internal/temporal"
	"github.com/spigell/profile-featurizer/internal/translate"
)

func loadSchema(config *Config) (*schema.Schema, error) {
	path := strings.TrimSpace(config.SchemaFile)
	if path == "" {
		return schema.Default(), nil
	}
	return schema.Load(path)
}

func yearGrid(config *Config) (temporal.YearGrid, error) {
	if config.YearGrid == nil {
		return temporal.DefaultGrid, nil
	}

	grid := temporal.YearGrid{Start: config.YearGrid.Start, End: config.YearGrid.End}
	if grid.End < grid.Start {
		return temporal.YearGrid{}, fmt.Errorf("year-grid end %d is before start %d", grid.End, grid.Start)
	}
	return grid, nil
}

func newTranslator(ctx context.Context, cfg *TranslateConfig, logger *zap.Logger) (translate.Translator, language.Tag, error) {
	if cfg == nil || !cfg.Enabled {
		return translate.Identity{}, language.English, nil
	}

	target, err := language.Parse(cfg.TargetLanguage)
	if err != nil {
		return nil, language.Und, fmt.Errorf("parse target language %q: %w", cfg.TargetLanguage, err)
	}

	gemini := cfg.Gemini
	if gemini == nil {
		gemini = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, language.Und, fmt.Errorf("%w (set translate.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	backend, err := translate.NewGemini(ctx, apiKey, gemini.Model, gemini.MaxLogLength, logger)
	if err != nil {
		return nil, language.Und, err
	}

	retrying := translate.NewRetrying(backend, translate.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.Backoff,
	}, logger.With(zap.Int("translate_max_retries", cfg.MaxRetries)))

	return translate.NewCached(retrying), target, nil
}

func newPreprocessor(ctx context.Context, config *Config, s *schema.Schema, logger *zap.Logger, opts ...featurize.PreprocessorOption) (*featurize.Preprocessor, error) {
	tr, target, err := newTranslator(ctx, config.Translate, logger)
	if err != nil {
		return nil, fmt.Errorf("building translator: %w", err)
	}

	return featurize.NewPreprocessor(s, normalize.New(tr, target, logger), logger, opts...), nil
}

func newFeaturizer(config *Config, s *schema.Schema, logger *zap.Logger) (*featurize.Featurizer, error) {
	grid, err := yearGrid(config)
	if err != nil {
		return nil, err
	}
	return featurize.NewFeaturizer(s, temporal.Parser{}, grid, logger)
}

func openStore(ctx context.Context, config *Config) (store.Store, error) {
	cfg := config.State
	if cfg == nil {
		cfg = &StateConfig{}
	}
	return store.Open(ctx, cfg.Backend, cfg.Path)
}

func newFetcher(config *Config, logger *zap.Logger) (fetch.Fetcher, error) {
	cfg := config.Fetch
	if cfg == nil {
		cfg = &FetchConfig{}
	}

	switch cfg.Source {
	case fetch.SourceFile, "":
		return &fetch.File{Path: cfg.Output}, nil
	case fetch.SourceCommand:
		return &fetch.Command{Args: cfg.Command, Output: cfg.Output, Logger: logger}, nil
	case fetch.SourceHeadHunter:
		hhCfg := cfg.HeadHunter
		if hhCfg == nil {
			hhCfg = &HeadHunterConfig{}
		}

		token, err := secrets.Load(secrets.Source{
			Name: "headhunter token",
			File: hhCfg.TokenFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set fetch.headhunter.token-file or HH_TOKEN_FILE)", err)
		}

		hh := fetch.NewHeadHunter(logger, token)
		if hhCfg.UserAgent != "" {
			hh.UserAgent = hhCfg.UserAgent
		}
		return hh, nil
	default:
		return nil, fmt.Errorf("unsupported fetch source: %s", cfg.Source)
	}
}

// newClassifiers builds one command classifier per configured task, ordered
// by the labels list and then by name.
func newClassifiers(config *Config) []predict.Classifier {
	order := make(map[string]int, len(config.Labels))
	for i, l := range config.Labels {
		order[strings.ToLower(l)] = i
	}

	tasks := make([]string, 0, len(config.Classifiers))
	for task := range config.Classifiers {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		oi, iok := order[tasks[i]]
		oj, jok := order[tasks[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return tasks[i] < tasks[j]
	})

	out := make([]predict.Classifier, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, &predict.Command{Task: task, Args: config.Classifiers[task]})
	}
	return out
}
