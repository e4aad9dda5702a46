package usecase

import (
	"context"
	"errors"
	"strings"

	"bedrock-chat/internal/domain"
	"bedrock-chat/internal/integrations/bedrock"
)

// LLMClient is the model invocation operation consumed by ChatService.
type LLMClient interface {
	Converse(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// ChatService relays a single chat turn to the model provider. It holds no
// per-request state; the caller supplies and keeps the conversation history.
type ChatService struct {
	llm     LLMClient
	modelID string
}

type ChatInput struct {
	Message string
	History []domain.ChatMessage
}

type ChatOutput struct {
	Reply   string
	History []domain.ChatMessage
}

func NewChatService(llm LLMClient, modelID string) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("usecase: model id must not be empty")
	}
	return &ChatService{llm: llm, modelID: modelID}, nil
}

// Model reports the configured model identifier.
func (s *ChatService) Model() string {
	return s.modelID
}

// Chat appends the new user message to the caller-supplied history, invokes
// the model, and returns the reply plus the history extended with both new
// turns. History entries keep their roles and content untouched.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}

	messages := domain.AppendTurn(in.History, domain.RoleUser, in.Message)

	reply, err := s.llm.Converse(ctx, s.modelID, messages)
	if err != nil {
		if errors.Is(err, bedrock.ErrInvalidResponse) {
			return ChatOutput{}, newError(ErrorUpstreamResponse, "invalid_model_response", err)
		}
		return ChatOutput{}, newError(ErrorUpstream, "bedrock_invocation_error", err)
	}

	return ChatOutput{
		Reply:   reply,
		History: domain.AppendTurn(messages, domain.RoleAssistant, reply),
	}, nil
}
