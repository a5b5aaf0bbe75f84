package analysis

import "github.com/azure/ai-content-detector/internal/models"

// Output schemas are plain JSON Schema documents so they can be handed to any backend.

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func num(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func modelLikelihoodsSchema() map[string]any {
	return map[string]any{
		"type":        "array",
		"description": "Likelihood scores for various AI models. Only models with a likelihood greater than 0.",
		"items": object(map[string]any{
			"model":      str("The name of the AI model."),
			"likelihood": num("The likelihood score for this model (0-100)."),
		}, "model", "likelihood"),
	}
}

func baseProperties(noun string) map[string]any {
	return map[string]any{
		"isAiGenerated":   map[string]any{"type": "boolean", "description": "Whether the " + noun + " is AI-generated or not."},
		"confidenceScore": num("The confidence score of the AI determination (0-1)."),
		"analysis":        str("A brief summary analysis explaining why the " + noun + " was classified as AI or Human."),
		"modelUsed":       str("The AI model used for the analysis."),
	}
}

var baseRequired = []string{"isAiGenerated", "confidenceScore", "analysis", "detailedAnalysis", "dataBreakdown"}

func textSchema() map[string]any {
	props := baseProperties("text")
	props["detailedAnalysis"] = object(map[string]any{
		"linguisticPatterns": str("Analysis of sentence structure, word choice, and complexity."),
		"cohesionAndFlow":    str("Evaluation of the text's logical flow and coherence."),
		"commonAiTraits":     str("Detection of traits common in AI writing, like repetition or overly generic phrases."),
	})
	props["dataBreakdown"] = object(map[string]any{
		"aiLikelihood":     num("Likelihood of being AI-generated (0-100)."),
		"readabilityScore": num("Readability of the text (0-100)."),
		"originalityScore": num("Originality of the text (0-100)."),
		"modelLikelihoods": modelLikelihoodsSchema(),
	}, "aiLikelihood", "readabilityScore", "originalityScore", "modelLikelihoods")
	return object(props, baseRequired...)
}

func mediaSchema(noun string, details map[string]any) map[string]any {
	props := baseProperties(noun)
	props["detailedAnalysis"] = object(details)
	props["potentialModificationAreas"] = str("If AI-generated, suggests where potential modifications happened.")
	props["dataBreakdown"] = object(map[string]any{
		"aiLikelihood":       num("Likelihood of being AI-generated (0-100)."),
		"deepfakeLikelihood": num("Likelihood of being a deepfake (0-100)."),
		"qualityScore":       num("Overall quality score of the " + noun + " (0-100)."),
		"modelLikelihoods":   modelLikelihoodsSchema(),
	}, "aiLikelihood", "deepfakeLikelihood", "qualityScore", "modelLikelihoods")
	return object(props, baseRequired...)
}

func imageSchema() map[string]any {
	return mediaSchema("image", map[string]any{
		"visualInconsistencies": str("Analysis of unnatural textures, lighting, or shadows."),
		"artifactAnalysis":      str("Detection of digital artifacts common in AI generation."),
		"contextualClues":       str("Clues from the image context or background that support the determination."),
		"editingToolAnalysis":   str("Signs of editing tools such as cloning, healing or generative fill."),
	})
}

func videoSchema() map[string]any {
	return mediaSchema("video", map[string]any{
		"temporalInconsistencies": str("Analysis of how elements change unnaturally over time."),
		"artifactAnalysis":        str("Detection of digital artifacts like warping or blurring between frames."),
		"audioVisualSync":         str("Checking for mismatches between audio and video if applicable."),
	})
}

func explainSchema() map[string]any {
	return object(map[string]any{
		"analysis":               str("The analysis explaining why the image was classified as AI-generated or human-created."),
		"potentialModifications": str("Potential modifications that may have occurred if classified as AI."),
	}, "analysis")
}

// OutputSchema returns the JSON Schema a backend must satisfy for the modality
func OutputSchema(m models.Modality) map[string]any {
	switch m {
	case models.ModalityText:
		return textSchema()
	case models.ModalityImage:
		return imageSchema()
	case models.ModalityVideo:
		return videoSchema()
	}
	return nil
}

// SchemaName returns the name under which the modality's output schema is sent
func SchemaName(m models.Modality) string {
	switch m {
	case models.ModalityText:
		return "AnalyzeTextAiDeterminationOutput"
	case models.ModalityImage:
		return "AnalyzeImageAiDeterminationOutput"
	case models.ModalityVideo:
		return "AnalyzeVideoAiDeterminationOutput"
	}
	return ""
}

const explainSchemaName = "ProvideAnalysisForAiDeterminationOutput"
