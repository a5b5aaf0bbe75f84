package render

import "github.com/azure/ai-content-detector/internal/models"

// Section is a titled block of prose
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Card is the verdict card presentation
type Card struct {
	Headline   string    `json:"headline"` // "THIS IS AI" / "THIS IS HUMAN"
	Label      string    `json:"label"`
	Tone       string    `json:"tone"` // "destructive" or "success"
	Confidence int       `json:"confidence"`
	Sections   []Section `json:"sections"`
}

// VerdictLabel returns the human-readable verdict
func VerdictLabel(isAI bool) string {
	if isAI {
		return "Likely AI-Generated"
	}
	return "Likely Human-Created"
}

// NewCard builds the verdict card of a response
func NewCard(resp *models.AnalysisResponse) Card {
	card := Card{
		Headline:   "THIS IS HUMAN",
		Label:      VerdictLabel(resp.IsAIGenerated),
		Tone:       "success",
		Confidence: resp.ConfidencePercent(),
		Sections:   []Section{{Title: "Analysis", Content: resp.Analysis}},
	}
	if resp.IsAIGenerated {
		card.Headline = "THIS IS AI"
		card.Tone = "destructive"
		if resp.PotentialModificationAreas != "" {
			card.Sections = append(card.Sections, Section{Title: "Potential Modifications", Content: resp.PotentialModificationAreas})
		}
	}
	return card
}
