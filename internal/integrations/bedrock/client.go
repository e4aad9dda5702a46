package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"bedrock-chat/internal/domain"
)

// bedrockAPI is the minimal Bedrock runtime interface required by Client.
// *bedrockruntime.Client from aws-sdk-go-v2 satisfies this interface.
type bedrockAPI interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// ErrInvalidResponse reports a provider reply that failed shape validation:
// undecodable body, missing output path, empty content list, or empty text.
var ErrInvalidResponse = errors.New("bedrock: invalid response from model")

// contentBlock is the nested content-list entry of the Bedrock wire format.
type contentBlock struct {
	Text string `json:"text"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type inferenceConfig struct {
	MaxTokens     int      `json:"maxTokens"`
	StopSequences []string `json:"stopSequences"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"topP"`
}

type invokeRequest struct {
	Messages        []message       `json:"messages"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
}

// invokeResponse is the minimal response shape returned by InvokeModel for
// Converse-style models. Only the generated text path is decoded.
type invokeResponse struct {
	Output struct {
		Message struct {
			Content []contentBlock `json:"content"`
		} `json:"message"`
	} `json:"output"`
}

// Inference parameters are static per deployment, not caller-configurable.
func defaultInferenceConfig() inferenceConfig {
	return inferenceConfig{
		MaxTokens:     512,
		StopSequences: []string{},
		Temperature:   0.7,
		TopP:          0.9,
	}
}

// Client wraps the Bedrock runtime API for single-turn model invocation.
type Client struct {
	api bedrockAPI
}

// New creates a Client with the given Bedrock runtime API implementation.
func New(api bedrockAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	return &Client{api: api}, nil
}

// Converse invokes the model with the full ordered message list and returns
// the generated text. The call blocks for the duration of model generation
// and is never retried; transport defaults govern any timeout.
func (c *Client) Converse(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	if model == "" {
		return "", errors.New("bedrock: model must not be empty")
	}

	body, err := json.Marshal(buildPayload(messages))
	if err != nil {
		return "", fmt.Errorf("bedrock: marshal payload: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: invoke model: %w", err)
	}
	return extractText(out.Body)
}

// buildPayload wraps each message's raw text into the provider's nested
// content-list shape, preserving roles and order.
func buildPayload(messages []domain.ChatMessage) invokeRequest {
	wire := make([]message, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, message{
			Role:    m.Role,
			Content: []contentBlock{{Text: m.Content}},
		})
	}
	return invokeRequest{
		Messages:        wire,
		InferenceConfig: defaultInferenceConfig(),
	}
}

// extractText decodes the response body and returns the first content
// block's text. Every structural deviation maps to ErrInvalidResponse.
func extractText(raw []byte) (string, error) {
	var payload invokeResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrInvalidResponse, err)
	}
	content := payload.Output.Message.Content
	if len(content) == 0 || content[0].Text == "" {
		return "", ErrInvalidResponse
	}
	return content[0].Text, nil
}
