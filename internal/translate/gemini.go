package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/genai"

	"github.com/spigell/profile-featurizer/internal/logger"
	"github.com/spigell/profile-featurizer/internal/utils"
)

const (
	defaultModel        = "gemini-2.5-flash"
	defaultMaxLogLength = 200
	providerName        = "gemini"

	systemInstruction = "You translate short profile fields such as company names, job titles and degrees. " +
		"Reply with the translation only, without quotes, notes or explanations. " +
		"Keep proper names and text that is already in the target language unchanged."
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini translates text with a Gemini model.
type Gemini struct {
	models    contentGenerator
	model     string
	maxLogLen int
	logger    *zap.Logger
}

// NewGemini creates a translator backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, maxLogLength int, log *zap.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGemini(client.Models, model, maxLogLength, log), nil
}

func newGemini(models contentGenerator, model string, maxLogLength int, log *zap.Logger) *Gemini {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Gemini{
		models:    models,
		model:     model,
		maxLogLen: maxLogLength,
		logger:    logger.WithCommonFields(log, providerName, model),
	}
}

func (g *Gemini) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini translator is not initialized")
	}

	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Temperature:       genai.Ptr[float32](0),
	}

	prompt := fmt.Sprintf("Translate to %s:\n%s", targetName(target), text)

	g.logger.Debug("gemini translate request",
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", utils.TruncateForLog(text, g.maxLogLen)),
	)

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", &TransientError{Err: errors.New("gemini api returned empty response")}
	}

	g.logger.Debug("gemini translate response",
		zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
	)

	return output, nil
}

func (g *Gemini) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func targetName(tag language.Tag) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
