package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/fetch"
	"github.com/spigell/profile-featurizer/internal/predict"
	"github.com/spigell/profile-featurizer/internal/store"
)

const PromptExit = "exit"

var errExit = errors.New("exit requested")

// newProfilePrompt asks for what the configured fetch source expects.
func newProfilePrompt(source string) promptui.Prompt {
	what := "profile url"
	switch source {
	case fetch.SourceFile, "":
		what = "profile json path"
	case fetch.SourceHeadHunter:
		what = "resume id or url"
	}
	return promptui.Prompt{
		Label: fmt.Sprintf("Enter %s (%s to quit)", what, PromptExit),
	}
}

var predictCmd = &cobra.Command{
	Use:   "predict [profile...]",
	Short: "Fetch profiles, encode them with the fitted encoders and run the configured classifiers",
	Run: func(cmd *cobra.Command, args []string) {
		runPredict(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().BoolP("interactive", "I", false, "ask for profiles until exit is entered")
}

func runPredict(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	logger, config := bootstrap()

	svc, err := newPredictService(ctx, config, logger)
	if err != nil {
		logger.Fatal("building prediction service", zap.Error(err))
	}

	for _, profile := range args {
		if err := predictOne(ctx, svc, profile); err != nil {
			logger.Fatal("prediction failed", zap.String("profile", profile), zap.Error(err))
		}
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if !interactive {
		if len(args) == 0 {
			logger.Fatal("nothing to predict", zap.String("hint", "pass profile identifiers or use --interactive"))
		}
		return
	}

	source := ""
	if config.Fetch != nil {
		source = config.Fetch.Source
	}
	profilePrompt := newProfilePrompt(source)

	for {
		profile, err := profilePrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleProfile(ctx, svc, profile); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			// one failed profile does not end the session
			logger.Error("prediction failed", zap.String("profile", profile), zap.Error(err))
		}
	}
}

func handleProfile(ctx context.Context, svc *predict.Service, input string) error {
	profile := strings.TrimSpace(input)
	switch {
	case strings.EqualFold(profile, PromptExit):
		return errExit
	case profile == "":
		return nil
	default:
		return predictOne(ctx, svc, profile)
	}
}

func predictOne(ctx context.Context, svc *predict.Service, profile string) error {
	res, err := svc.Predict(ctx, profile)
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}

func newPredictService(ctx context.Context, config *Config, logger *zap.Logger) (*predict.Service, error) {
	s, err := loadSchema(config)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	st, err := openStore(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	defer st.Close()

	states, err := st.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w (run the fit command first)", err)
		}
		return nil, fmt.Errorf("loading encoder state: %w", err)
	}

	feat, err := newFeaturizer(config, s, logger)
	if err != nil {
		return nil, err
	}
	if err := feat.Restore(states); err != nil {
		return nil, fmt.Errorf("restoring encoders: %w", err)
	}

	pre, err := newPreprocessor(ctx, config, s, logger)
	if err != nil {
		return nil, err
	}

	fetcher, err := newFetcher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("building fetcher: %w", err)
	}

	return predict.NewService(fetcher, s, pre, feat, newClassifiers(config), logger), nil
}
