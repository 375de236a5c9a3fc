package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/trie-spam-filter/internal/adapters/prompt"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GenerateContentAPI is the part of *genai.GenerativeModel the client uses
type GenerateContentAPI interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient is an implementation of the Explainer interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         GenerateContentAPI
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini explainer
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.SystemMessage)},
	}

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Name returns the model used for explanations
func (c *GeminiClient) Name() string {
	return c.modelName
}

// Explain asks the model to describe the verdict
func (c *GeminiClient) Explain(ctx context.Context, text string, analysis core.Analysis) (string, error) {
	processed := c.textProcessor.ProcessText(text, c.maxBodySize)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt.Build(processed, analysis)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	reply, err := responseText(resp)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Gemini explanation received", zap.Int("response_size", len(reply)))

	return prompt.Parse(reply)
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return b.String(), nil
}
