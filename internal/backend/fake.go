package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/azure/ai-content-detector/internal/models"
)

// FakeBackend returns canned outputs. It is used by tests and by BACKEND=fake.
type FakeBackend struct {
	Responses map[string][]byte // keyed by prompt name
	Error     error
	ModelName string

	mu      sync.Mutex
	prompts []*Prompt
}

// Ensure FakeBackend implements Backend
var _ Backend = (*FakeBackend)(nil)

// NewFake creates a fake that answers every prompt with response
func NewFake(response string) *FakeBackend {
	f := NewDemo()
	for name := range f.Responses {
		f.Responses[name] = []byte(response)
	}
	return f
}

// NewDemo creates a fake that answers each flow with a plausible, well-formed output
func NewDemo() *FakeBackend {
	return &FakeBackend{
		ModelName: "fake",
		Responses: map[string][]byte{
			FlowName(models.ModalityText):  []byte(demoText),
			FlowName(models.ModalityImage): []byte(demoImage),
			FlowName(models.ModalityVideo): []byte(demoVideo),
			ExplainFlowName:                []byte(demoExplain),
		},
	}
}

func (f *FakeBackend) Generate(ctx context.Context, prompt *Prompt) ([]byte, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.Error != nil {
		return nil, f.Error
	}

	out, ok := f.Responses[prompt.Name]
	if !ok {
		return nil, fmt.Errorf("fake backend has no response for %s", prompt.Name)
	}
	return out, nil
}

func (f *FakeBackend) Model() string {
	return f.ModelName
}

// Calls returns the number of prompts received
func (f *FakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// LastPrompt returns the most recent prompt, or nil
func (f *FakeBackend) LastPrompt() *Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return nil
	}
	return f.prompts[len(f.prompts)-1]
}

// FlowName returns the prompt name used for a modality
func FlowName(m models.Modality) string {
	switch m {
	case models.ModalityText:
		return "analyzeTextAiDetermination"
	case models.ModalityImage:
		return "analyzeImageAiDetermination"
	case models.ModalityVideo:
		return "analyzeVideoAiDetermination"
	}
	return ""
}

// ExplainFlowName is the prompt name of the verdict explanation flow
const ExplainFlowName = "provideAnalysisForAiDetermination"

const demoText = `{
  "isAiGenerated": false,
  "confidenceScore": 0.82,
  "analysis": "Short, idiomatic sentence with no padding; reads as human-written.",
  "modelUsed": "fake",
  "detailedAnalysis": {
    "linguisticPatterns": "Single pangram with natural word choice.",
    "cohesionAndFlow": "Trivially cohesive.",
    "commonAiTraits": "No repetition or generic hedging."
  },
  "dataBreakdown": {
    "aiLikelihood": 82,
    "readabilityScore": 95,
    "originalityScore": 40,
    "modelLikelihoods": [
      {"model": "GPT-4", "likelihood": 10},
      {"model": "Gemini", "likelihood": 6},
      {"model": "Claude", "likelihood": 0}
    ]
  }
}`

const demoImage = `{
  "isAiGenerated": true,
  "confidenceScore": 0.91,
  "analysis": "Lighting and texture are too uniform for a photograph.",
  "modelUsed": "fake",
  "detailedAnalysis": {
    "visualInconsistencies": "Shadows fall in two directions.",
    "artifactAnalysis": "Repeating micro-patterns in the background.",
    "contextualClues": "Illegible text on signage."
  },
  "potentialModificationAreas": "Background signage and the subject's hands.",
  "dataBreakdown": {
    "aiLikelihood": 91,
    "deepfakeLikelihood": 12,
    "qualityScore": 78,
    "modelLikelihoods": [
      {"model": "Midjourney", "likelihood": 64},
      {"model": "Stable Diffusion", "likelihood": 22},
      {"model": "DALL-E", "likelihood": 0}
    ]
  }
}`

const demoVideo = `{
  "isAiGenerated": true,
  "confidenceScore": 0.74,
  "analysis": "Objects morph between frames.",
  "modelUsed": "fake",
  "detailedAnalysis": {
    "temporalInconsistencies": "Hair shape changes without motion.",
    "artifactAnalysis": "Warping around fast-moving edges.",
    "audioVisualSync": "No audio track."
  },
  "potentialModificationAreas": "Subject's face between 0:02 and 0:05.",
  "dataBreakdown": {
    "aiLikelihood": 74,
    "deepfakeLikelihood": 30,
    "qualityScore": 61,
    "modelLikelihoods": [
      {"model": "Sora", "likelihood": 41},
      {"model": "Kling", "likelihood": 18}
    ]
  }
}`

const demoExplain = `{
  "analysis": "The determination rests on inconsistent lighting and synthetic textures.",
  "potentialModifications": "Sky region and reflections."
}`
