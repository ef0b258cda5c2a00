package vision

import (
	"context"
	"encoding/base64"

	openai "github.com/sashabaranov/go-openai"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

const defaultPrompt = "Describe this product photo for an advertisement brief: " +
	"product type, dominant colours, and which presentation style would suit it."

// Analyzer sends product photos to a multimodal model and returns a
// short advertising-oriented description. It is optional: when the
// feature is disabled the service simply does not construct one.
type Analyzer struct {
	cfg    config.VisionConfig
	client *openai.Client
	logger *logging.Logger
}

func NewAnalyzer(cfg config.VisionConfig, logger *logging.Logger) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "vision.analyzer", "api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Analyzer{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger,
	}, nil
}

// Describe analyzes one image. An empty prompt falls back to the
// default advertising brief prompt.
func (a *Analyzer) Describe(ctx context.Context, img *artifact.Artifact, prompt string) (string, error) {
	if img == nil || !img.Valid() {
		return "", errors.New(errors.KindValidation, "vision.analyzer", "input image is empty or malformed")
	}
	if prompt == "" {
		prompt = defaultPrompt
	}

	encoded, err := img.EncodePNG()
	if err != nil {
		return "", errors.Wrap(errors.KindVision, "vision.analyzer", "encode image", err)
	}
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(encoded)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI, Detail: openai.ImageURLDetailLow},
					},
				},
			},
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.KindVision, "vision.analyzer", "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindVision, "vision.analyzer", "model returned no choices")
	}

	a.logger.Debug("vision analysis complete", "model", a.cfg.Model, "tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
