package backend

import (
	"context"
	"errors"

	"github.com/azure/ai-content-detector/internal/models"
)

// Prompt is a schema-typed request to an analysis backend
type Prompt struct {
	Name         string               // flow name, e.g. "analyzeImageAiDetermination"
	Modality     models.Modality
	Instructions string               // rendered prompt text
	Text         string               // text under analysis, text modality only
	Media        *models.EncodedMedia // media under analysis, image/video only
	SchemaName   string
	Schema       map[string]any // JSON Schema of the expected output
}

// Backend is the analysis oracle: it accepts a prompt with an output schema and returns
// the raw JSON object produced for that schema. Backends do not validate the output.
type Backend interface {
	Generate(ctx context.Context, prompt *Prompt) ([]byte, error)
	Model() string
}

const userAgent = "AI-Content-Detector/1.0"

// ErrUnsupportedModality is returned by backends that cannot accept a modality
var ErrUnsupportedModality = errors.New("backend does not support this modality")
