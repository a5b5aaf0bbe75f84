package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/azure/ai-content-detector/internal/models"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIBackend uses an OpenAI-compatible Chat Completions endpoint with a JSON schema response format.
// Images are sent as image_url parts carrying the data URI. Video is not accepted by this API.
type OpenAIBackend struct {
	client *resty.Client
	model  string
}

// Ensure OpenAIBackend implements Backend
var _ Backend = (*OpenAIBackend)(nil)

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIChatMessage  `json:"messages"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIChatMessage struct {
	Role    string          `json:"role"`
	Content []openAIContent `json:"content"`
}

type openAIContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema openAIJSONSchema `json:"json_schema"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIBackend creates an OpenAI-compatible backend
func NewOpenAIBackend(baseURL, apiKey, model string, timeout time.Duration) *OpenAIBackend {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &OpenAIBackend{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetAuthToken(apiKey).
			SetHeader("User-Agent", userAgent).
			SetHeader("Content-Type", "application/json"),
		model: model,
	}
}

func (o *OpenAIBackend) Model() string {
	return o.model
}

func (o *OpenAIBackend) Generate(ctx context.Context, prompt *Prompt) ([]byte, error) {
	if prompt.Modality == models.ModalityVideo {
		return nil, ErrUnsupportedModality
	}

	// Instructions already embed the text under analysis
	content := []openAIContent{{Type: "text", Text: prompt.Instructions}}
	if prompt.Media != nil {
		content = append(content, openAIContent{
			Type:     "image_url",
			ImageURL: &openAIImageURL{URL: prompt.Media.DataURI()},
		})
	}

	req := openAIChatRequest{
		Model:    o.model,
		Messages: []openAIChatMessage{{Role: "user", Content: content}},
		ResponseFormat: openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIJSONSchema{
				Name:   prompt.SchemaName,
				Schema: prompt.Schema,
			},
		},
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("call chat completions: %w", err)
	}

	if !resp.IsSuccess() {
		var errBody openAIErrorResponse
		if json.Unmarshal(resp.Body(), &errBody) == nil && errBody.Error.Message != "" {
			return nil, fmt.Errorf("chat completions error (status %d): %s", resp.StatusCode(), errBody.Error.Message)
		}
		return nil, fmt.Errorf("chat completions returned status %d", resp.StatusCode())
	}

	var chat openAIChatResponse
	if err := json.Unmarshal(resp.Body(), &chat); err != nil {
		return nil, fmt.Errorf("decode chat completions response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("chat completions response had no choices")
	}

	logrus.WithFields(logrus.Fields{
		"flow":          prompt.Name,
		"finish_reason": chat.Choices[0].FinishReason,
	}).Debug("Chat completions responded")

	return []byte(stripCodeFence(chat.Choices[0].Message.Content)), nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add around structured output
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
