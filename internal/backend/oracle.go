package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// OracleBackend talks to a vendor-neutral analysis service over HTTP.
// The service receives the prompt, the input and the output schema, and answers {"output": {...}}.
type OracleBackend struct {
	client *resty.Client
	model  string
}

// Ensure OracleBackend implements Backend
var _ Backend = (*OracleBackend)(nil)

type oracleRequest struct {
	Flow         string         `json:"flow"`
	Modality     string         `json:"modality,omitempty"`
	Model        string         `json:"model"`
	Prompt       string         `json:"prompt"`
	Input        oracleInput    `json:"input"`
	SchemaName   string         `json:"schemaName"`
	OutputSchema map[string]any `json:"outputSchema"`
}

type oracleInput struct {
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	DataURI  string `json:"dataUri,omitempty"`
}

type oracleResponse struct {
	Output json.RawMessage `json:"output"`
}

type oracleErrorResponse struct {
	Error string `json:"error"`
}

// NewOracleBackend creates a backend for the analysis service at baseURL
func NewOracleBackend(baseURL, apiKey, model string, timeout time.Duration) *OracleBackend {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &OracleBackend{
		client: client,
		model:  model,
	}
}

func (o *OracleBackend) Model() string {
	return o.model
}

func (o *OracleBackend) Generate(ctx context.Context, prompt *Prompt) ([]byte, error) {
	req := oracleRequest{
		Flow:         prompt.Name,
		Modality:     string(prompt.Modality),
		Model:        o.model,
		Prompt:       prompt.Instructions,
		Input:        oracleInput{Text: prompt.Text},
		SchemaName:   prompt.SchemaName,
		OutputSchema: prompt.Schema,
	}
	if prompt.Media != nil {
		req.Input.MimeType = prompt.Media.MimeType
		req.Input.DataURI = prompt.Media.DataURI()
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/generate")
	if err != nil {
		return nil, fmt.Errorf("call analysis service: %w", err)
	}

	if !resp.IsSuccess() {
		var errBody oracleErrorResponse
		if json.Unmarshal(resp.Body(), &errBody) == nil && errBody.Error != "" {
			return nil, fmt.Errorf("analysis service returned status %d: %s", resp.StatusCode(), errBody.Error)
		}
		return nil, fmt.Errorf("analysis service returned status %d", resp.StatusCode())
	}

	logrus.WithFields(logrus.Fields{
		"flow":     prompt.Name,
		"duration": resp.Time().String(),
	}).Debug("Analysis service responded")

	// A body that is not an envelope is handed on as-is and rejected by the contract
	var out oracleResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return resp.Body(), nil
	}
	return out.Output, nil
}
