package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/require"

	"bedrock-chat/internal/domain"
)

// fakeAPI is a minimal bedrockAPI stub capturing the last request.
type fakeAPI struct {
	out      *bedrockruntime.InvokeModelOutput
	err      error
	gotInput *bedrockruntime.InvokeModelInput
	calls    int
}

func (f *fakeAPI) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.calls++
	f.gotInput = in
	return f.out, f.err
}

func responseBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"output": map[string]any{
			"message": map[string]any{
				"content": []map[string]string{{"text": text}},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestConverse_EmptyModel(t *testing.T) {
	c, err := New(&fakeAPI{})
	require.NoError(t, err)

	_, err = c.Converse(context.Background(), "", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

func TestConverse_HappyPath(t *testing.T) {
	api := &fakeAPI{out: &bedrockruntime.InvokeModelOutput{Body: responseBody(t, "hi there")}}
	c, err := New(api)
	require.NoError(t, err)

	text, err := c.Converse(context.Background(), "us.amazon.nova-lite-v1:0", []domain.ChatMessage{
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "hi there", text)
	require.Equal(t, 1, api.calls)

	require.NotNil(t, api.gotInput)
	require.Equal(t, "us.amazon.nova-lite-v1:0", *api.gotInput.ModelId)
	require.Equal(t, "application/json", *api.gotInput.ContentType)
}

func TestConverse_PayloadShape(t *testing.T) {
	api := &fakeAPI{out: &bedrockruntime.InvokeModelOutput{Body: responseBody(t, "d")}}
	c, err := New(api)
	require.NoError(t, err)

	_, err = c.Converse(context.Background(), "model-x", []domain.ChatMessage{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "user", Content: "c"},
	})
	require.NoError(t, err)

	require.JSONEq(t, `{
		"messages": [
			{"role": "user", "content": [{"text": "a"}]},
			{"role": "assistant", "content": [{"text": "b"}]},
			{"role": "user", "content": [{"text": "c"}]}
		],
		"inferenceConfig": {
			"maxTokens": 512,
			"stopSequences": [],
			"temperature": 0.7,
			"topP": 0.9
		}
	}`, string(api.gotInput.Body))
}

func TestConverse_InvocationError(t *testing.T) {
	underlying := errors.New("throttled by service")
	c, err := New(&fakeAPI{err: underlying})
	require.NoError(t, err)

	_, err = c.Converse(context.Background(), "model-x", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, underlying)
	require.NotErrorIs(t, err, ErrInvalidResponse)
	require.Contains(t, err.Error(), "invoke model")
}

func TestConverse_InvalidResponses(t *testing.T) {
	cases := []struct {
		name string
		body []byte
	}{
		{"not json", []byte(`not-json`)},
		{"empty object", []byte(`{}`)},
		{"missing message", []byte(`{"output":{}}`)},
		{"empty content list", []byte(`{"output":{"message":{"content":[]}}}`)},
		{"empty text", []byte(`{"output":{"message":{"content":[{"text":""}]}}}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(&fakeAPI{out: &bedrockruntime.InvokeModelOutput{Body: tc.body}})
			require.NoError(t, err)

			_, err = c.Converse(context.Background(), "model-x", []domain.ChatMessage{{Role: "user", Content: "hi"}})
			require.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestConverse_SecondContentBlockIgnored(t *testing.T) {
	body := []byte(`{"output":{"message":{"content":[{"text":"first"},{"text":"second"}]}}}`)
	c, err := New(&fakeAPI{out: &bedrockruntime.InvokeModelOutput{Body: body}})
	require.NoError(t, err)

	text, err := c.Converse(context.Background(), "model-x", []domain.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, "first", text)
}
