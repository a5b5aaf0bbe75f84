package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/ai-content-detector/internal/models"
)

func imagePrompt() *Prompt {
	return &Prompt{
		Name:         FlowName(models.ModalityImage),
		Modality:     models.ModalityImage,
		Instructions: "Analyze the attached image/png file.",
		Media:        &models.EncodedMedia{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
		SchemaName:   "AnalyzeImageAiDeterminationOutput",
		Schema:       map[string]any{"type": "object"},
	}
}

func TestOracleBackend_Generate(t *testing.T) {
	var received oracleRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "AI-Content-Detector/1.0", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output": {"isAiGenerated": true}}`))
	}))
	defer server.Close()

	b := NewOracleBackend(server.URL, "secret", "Gemini 2.5 Flash", 5*time.Second)
	out, err := b.Generate(context.Background(), imagePrompt())
	require.NoError(t, err)

	assert.JSONEq(t, `{"isAiGenerated": true}`, string(out))
	assert.Equal(t, "analyzeImageAiDetermination", received.Flow)
	assert.Equal(t, "Gemini 2.5 Flash", received.Model)
	assert.Equal(t, "image/png", received.Input.MimeType)
	assert.Equal(t, "data:image/png;base64,iVBORw==", received.Input.DataURI)
	assert.Equal(t, "AnalyzeImageAiDeterminationOutput", received.SchemaName)
}

func TestOracleBackend_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantError string
	}{
		{name: "Error envelope", status: http.StatusTooManyRequests, body: `{"error": "quota exceeded"}`, wantError: "status 429: quota exceeded"},
		{name: "Plain failure", status: http.StatusInternalServerError, body: `oops`, wantError: "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOracleBackend(server.URL, "", "m", time.Second).Generate(context.Background(), imagePrompt())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

func TestOpenAIBackend_Generate(t *testing.T) {
	var received openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "` +
			"```json\\n{\\\"isAiGenerated\\\": false}\\n```" + `"}, "finish_reason": "stop"}]}`))
	}))
	defer server.Close()

	b := NewOpenAIBackend(server.URL+"/", "key", "gpt-4o", 5*time.Second)
	out, err := b.Generate(context.Background(), imagePrompt())
	require.NoError(t, err)

	assert.JSONEq(t, `{"isAiGenerated": false}`, string(out))
	assert.Equal(t, "gpt-4o", received.Model)
	assert.Equal(t, "json_schema", received.ResponseFormat.Type)
	assert.Equal(t, "AnalyzeImageAiDeterminationOutput", received.ResponseFormat.JSONSchema.Name)
	require.Len(t, received.Messages, 1)
	require.Len(t, received.Messages[0].Content, 2)
	assert.Equal(t, "image_url", received.Messages[0].Content[1].Type)
	assert.Equal(t, "data:image/png;base64,iVBORw==", received.Messages[0].Content[1].ImageURL.URL)
}

func TestOpenAIBackend_RejectsVideo(t *testing.T) {
	b := NewOpenAIBackend("http://127.0.0.1:1", "key", "gpt-4o", time.Second)
	_, err := b.Generate(context.Background(), &Prompt{Name: FlowName(models.ModalityVideo), Modality: models.ModalityVideo})
	assert.ErrorIs(t, err, ErrUnsupportedModality)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(` {"a":1} `))
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	fake := NewDemo()
	fake.Error = errors.New("upstream down")

	b := NewBreaker(fake, 2, time.Minute)
	prompt := &Prompt{Name: FlowName(models.ModalityText), Modality: models.ModalityText}

	for i := 0; i < 2; i++ {
		_, err := b.Generate(context.Background(), prompt)
		assert.EqualError(t, err, "upstream down")
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Generate(context.Background(), prompt)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, fake.Calls(), "open circuit must not reach the backend")
}

func TestBreaker_UnsupportedModalityDoesNotTrip(t *testing.T) {
	fake := NewDemo()
	fake.Error = ErrUnsupportedModality

	b := NewBreaker(fake, 1, time.Minute)
	for i := 0; i < 3; i++ {
		_, err := b.Generate(context.Background(), &Prompt{Name: FlowName(models.ModalityVideo)})
		assert.ErrorIs(t, err, ErrUnsupportedModality)
	}
	assert.Equal(t, "closed", b.State())
}

func TestFakeBackend(t *testing.T) {
	fake := NewDemo()
	out, err := fake.Generate(context.Background(), &Prompt{Name: ExplainFlowName})
	require.NoError(t, err)
	assert.Contains(t, string(out), "potentialModifications")
	assert.Equal(t, 1, fake.Calls())

	_, err = fake.Generate(context.Background(), &Prompt{Name: "unknown"})
	assert.Error(t, err)
	assert.Equal(t, "unknown", fake.LastPrompt().Name)
}
