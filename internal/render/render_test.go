package render

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/ai-content-detector/internal/models"
)

func ptr(v float64) *float64 { return &v }

func imageResponse(isAI bool) *models.AnalysisResponse {
	resp := &models.AnalysisResponse{
		Modality:        models.ModalityImage,
		IsAIGenerated:   isAI,
		ConfidenceScore: 0.91,
		Analysis:        "Lighting is too uniform.",
		ModelUsed:       "Gemini 2.5 Flash",
		DetailedAnalysis: models.DetailedAnalysis{
			VisualInconsistencies: "Two shadow directions.",
			ContextualClues:       "Illegible signage.",
		},
		DataBreakdown: models.DataBreakdown{
			AILikelihood:       91,
			DeepfakeLikelihood: ptr(12.4),
			QualityScore:       ptr(78),
			ModelLikelihoods: []models.ModelLikelihood{
				{Model: "Midjourney", Likelihood: 64},
				{Model: "Imagen", Likelihood: 9.6},
			},
		},
	}
	if isAI {
		resp.PotentialModificationAreas = "The subject's hands."
	}
	return resp
}

func textResponse() *models.AnalysisResponse {
	return &models.AnalysisResponse{
		Modality:        models.ModalityText,
		ConfidenceScore: 0.18,
		Analysis:        "Reads as human.",
		DetailedAnalysis: models.DetailedAnalysis{
			LinguisticPatterns: "Varied sentences.",
			CommonAITraits:     "None found.",
		},
		DataBreakdown: models.DataBreakdown{
			AILikelihood:     18,
			ReadabilityScore: ptr(70),
			OriginalityScore: ptr(85),
			ModelLikelihoods: []models.ModelLikelihood{},
		},
	}
}

func TestChat(t *testing.T) {
	msgs := Chat(imageResponse(true))
	require.Len(t, msgs, 7)

	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "Can you analyze this?", msgs[0].Content)
	assert.Equal(t, "After analyzing the content, I've determined that it is **likely AI-Generated**.", msgs[1].Content)
	assert.Equal(t, "bot", msgs[1].Icon)
	assert.Equal(t, "My confidence in this assessment is **91%**. Lighting is too uniform.", msgs[2].Content)

	titles := []string{msgs[3].Title, msgs[4].Title, msgs[5].Title}
	assert.Equal(t, []string{"Potential Modifications", "Visual Inconsistencies", "Contextual Clues"}, titles)

	last := msgs[len(msgs)-1]
	require.NotNil(t, last.Breakdown)
	assert.Equal(t, "Data Breakdown", last.Title)
}

func TestChat_HumanText(t *testing.T) {
	msgs := Chat(textResponse())
	require.Len(t, msgs, 6)

	assert.Equal(t, "After analyzing the content, I've determined that it is **likely Human-Created**.", msgs[1].Content)
	assert.Equal(t, "Linguistic Patterns", msgs[3].Title)
	assert.Equal(t, "scan-text", msgs[3].Icon)
	assert.Equal(t, "Common AI Traits", msgs[4].Title)
}

func TestNewCard(t *testing.T) {
	tests := []struct {
		name         string
		resp         *models.AnalysisResponse
		wantHeadline string
		wantTone     string
		wantSections int
	}{
		{name: "AI image", resp: imageResponse(true), wantHeadline: "THIS IS AI", wantTone: "destructive", wantSections: 2},
		{name: "Human image", resp: imageResponse(false), wantHeadline: "THIS IS HUMAN", wantTone: "success", wantSections: 1},
		{name: "Human text", resp: textResponse(), wantHeadline: "THIS IS HUMAN", wantTone: "success", wantSections: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := NewCard(tt.resp)
			assert.Equal(t, tt.wantHeadline, card.Headline)
			assert.Equal(t, tt.wantTone, card.Tone)
			assert.Len(t, card.Sections, tt.wantSections)
			assert.Equal(t, tt.resp.ConfidencePercent(), card.Confidence)
		})
	}
}

func TestGauges(t *testing.T) {
	panel := Gauges(imageResponse(true))
	assert.Equal(t, []Gauge{{Label: "AI", Value: 91}, {Label: "Deepfake", Value: 12}, {Label: "Quality", Value: 78}}, panel.Gauges)
	require.Len(t, panel.Models, 2)
	assert.Equal(t, ModelRow{Model: "Midjourney", Likelihood: 64, Color: chart1}, panel.Models[0])
	assert.Equal(t, foreground, panel.Models[1].Color)
	assert.Equal(t, 10, panel.Models[1].Likelihood)

	panel = Gauges(textResponse())
	assert.Equal(t, []Gauge{{Label: "AI", Value: 18}, {Label: "Readability", Value: 70}, {Label: "Originality", Value: 85}}, panel.Gauges)
	assert.Empty(t, panel.Models)
}

func TestModelColor(t *testing.T) {
	assert.Equal(t, "chart-3", ModelColor("Gemini").Token)
	assert.Equal(t, "chart-1", ModelColor("Sora").Token)
	assert.Equal(t, "foreground", ModelColor("Unknown Model").Token)
}

func TestCardHTML(t *testing.T) {
	resp := imageResponse(true)
	resp.Analysis = "Looks <generated> & smooth"

	out, err := CardHTML(resp)
	require.NoError(t, err)

	assert.Contains(t, out, "THIS IS AI")
	assert.Contains(t, out, "Looks &lt;generated&gt; &amp; smooth")
	assert.Contains(t, out, "Potential Modifications")
	assert.Contains(t, out, "Midjourney")
	assert.Contains(t, out, "#e76e50")
	assert.Contains(t, out, "Analyzed with Gemini 2.5 Flash")
}

func TestWriteText(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, imageResponse(true)))

	out := buf.String()
	assert.Contains(t, out, "THIS IS AI")
	assert.Contains(t, out, "Likely AI-Generated | image | Gemini 2.5 Flash")
	assert.Contains(t, out, "91%")
	assert.Contains(t, out, "Visual Inconsistencies")
	assert.Contains(t, out, "Deepfake")
	assert.Contains(t, out, "Midjourney")
	assert.Contains(t, out, "Model Likeliness")
}

func TestWriteText_NoModels(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, textResponse()))
	assert.NotContains(t, buf.String(), "Model Likeliness")
	assert.Contains(t, buf.String(), "Readability")
}

func TestWriteExplanation(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteExplanation(&buf, &models.Explanation{Analysis: "Synthetic skin.", PotentialModifications: "Face"})
	assert.Contains(t, buf.String(), "Synthetic skin.")
	assert.Contains(t, buf.String(), "Potential Modifications")
}
