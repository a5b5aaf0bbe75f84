package render

import (
	"fmt"
	"strings"

	"github.com/azure/ai-content-detector/internal/models"
)

// Role is the speaker of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversational report.
// The final message carries the data breakdown instead of prose.
type Message struct {
	Role      Role   `json:"role"`
	Title     string `json:"title,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Content   string `json:"content,omitempty"`
	Breakdown *Panel `json:"breakdown,omitempty"`
}

// Details returns the non-empty findings of a response in display order.
// Potential modifications come first when the verdict is AI.
func Details(resp *models.AnalysisResponse) []Section {
	var out []Section
	add := func(title, content string) {
		if content != "" {
			out = append(out, Section{Title: title, Content: content})
		}
	}

	if resp.IsAIGenerated {
		add("Potential Modifications", resp.PotentialModificationAreas)
	}

	d := resp.DetailedAnalysis
	switch resp.Modality {
	case models.ModalityText:
		add("Linguistic Patterns", d.LinguisticPatterns)
		add("Cohesion & Flow", d.CohesionAndFlow)
		add("Common AI Traits", d.CommonAITraits)
	case models.ModalityImage:
		add("Visual Inconsistencies", d.VisualInconsistencies)
		add("Artifact Analysis", d.ArtifactAnalysis)
		add("Contextual Clues", d.ContextualClues)
		add("Editing Tool Analysis", d.EditingToolAnalysis)
	case models.ModalityVideo:
		add("Temporal Inconsistencies", d.TemporalInconsistencies)
		add("Artifact Analysis", d.ArtifactAnalysis)
		add("Audio-Visual Sync", d.AudioVisualSync)
	}
	return out
}

func detailIcon(m models.Modality) string {
	switch m {
	case models.ModalityImage:
		return "file-image"
	case models.ModalityVideo:
		return "file-video"
	}
	return "scan-text"
}

// Chat builds the conversational report of a response
func Chat(resp *models.AnalysisResponse) []Message {
	verdictIcon := "user"
	if resp.IsAIGenerated {
		verdictIcon = "bot"
	}

	msgs := []Message{
		{Role: RoleUser, Content: "Can you analyze this?"},
		{
			Role:    RoleAssistant,
			Title:   "Initial Determination",
			Icon:    verdictIcon,
			Content: fmt.Sprintf("After analyzing the content, I've determined that it is **%s**.", lowerFirst(VerdictLabel(resp.IsAIGenerated))),
		},
		{
			Role:    RoleAssistant,
			Title:   "Confidence Score & Summary",
			Icon:    "percent",
			Content: fmt.Sprintf("My confidence in this assessment is **%d%%**. %s", resp.ConfidencePercent(), resp.Analysis),
		},
	}

	for _, s := range Details(resp) {
		icon := detailIcon(resp.Modality)
		if s.Title == "Potential Modifications" {
			icon = "bot"
		}
		msgs = append(msgs, Message{Role: RoleAssistant, Title: s.Title, Icon: icon, Content: s.Content})
	}

	panel := Gauges(resp)
	msgs = append(msgs, Message{Role: RoleAssistant, Title: panel.Title, Breakdown: &panel})
	return msgs
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
