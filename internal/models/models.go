package models

import "time"

// Modality identifies the kind of content submitted for analysis
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
)

// Modalities lists every supported modality in display order
var Modalities = []Modality{ModalityText, ModalityImage, ModalityVideo}

// IsMedia reports whether the modality carries an encoded media payload
func (m Modality) IsMedia() bool {
	return m == ModalityImage || m == ModalityVideo
}

// Valid reports whether m is one of the supported modalities
func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityVideo:
		return true
	}
	return false
}

// AnalysisRequest carries the modality-specific input of an analysis.
// Exactly one field is meaningful for a given modality.
type AnalysisRequest struct {
	Text         string `json:"text,omitempty"`
	PhotoDataURI string `json:"photoDataUri,omitempty"`
	VideoDataURI string `json:"videoDataUri,omitempty"`
}

// DetailedAnalysis holds the free-text findings of an analysis.
// Which keys are populated depends on the modality.
type DetailedAnalysis struct {
	// text
	LinguisticPatterns string `json:"linguisticPatterns,omitempty"`
	CohesionAndFlow    string `json:"cohesionAndFlow,omitempty"`
	CommonAITraits     string `json:"commonAiTraits,omitempty"`

	// image
	VisualInconsistencies string `json:"visualInconsistencies,omitempty"`
	ContextualClues       string `json:"contextualClues,omitempty"`
	EditingToolAnalysis   string `json:"editingToolAnalysis,omitempty"`

	// video
	TemporalInconsistencies string `json:"temporalInconsistencies,omitempty"`
	AudioVisualSync         string `json:"audioVisualSync,omitempty"`

	// image and video
	ArtifactAnalysis string `json:"artifactAnalysis,omitempty"`
}

// ModelLikelihood is the estimated likelihood (0-100] that a given generator produced the content
type ModelLikelihood struct {
	Model      string  `json:"model"`
	Likelihood float64 `json:"likelihood"`
}

// DataBreakdown is the numeric summary of an analysis
type DataBreakdown struct {
	AILikelihood float64 `json:"aiLikelihood"` // round(confidenceScore * 100)

	// image and video
	DeepfakeLikelihood *float64 `json:"deepfakeLikelihood,omitempty"`
	QualityScore       *float64 `json:"qualityScore,omitempty"`

	// text
	ReadabilityScore *float64 `json:"readabilityScore,omitempty"`
	OriginalityScore *float64 `json:"originalityScore,omitempty"`

	ModelLikelihoods []ModelLikelihood `json:"modelLikelihoods"`
}

// AnalysisResponse is the validated result of an analysis
type AnalysisResponse struct {
	Modality                   Modality         `json:"modality"`
	IsAIGenerated              bool             `json:"isAiGenerated"`
	ConfidenceScore            float64          `json:"confidenceScore"` // 0-1
	Analysis                   string           `json:"analysis"`
	ModelUsed                  string           `json:"modelUsed,omitempty"`
	DetailedAnalysis           DetailedAnalysis `json:"detailedAnalysis"`
	PotentialModificationAreas string           `json:"potentialModificationAreas,omitempty"` // image/video, AI only
	DataBreakdown              DataBreakdown    `json:"dataBreakdown"`
}

// ConfidencePercent returns the confidence score as a rounded percentage
func (r *AnalysisResponse) ConfidencePercent() int {
	return int(r.DataBreakdown.AILikelihood)
}

// Determination is the verdict passed to an explanation request
type Determination string

const (
	DeterminationAI    Determination = "AI"
	DeterminationHuman Determination = "Human"
)

// ExplainRequest asks the backend to justify an existing image verdict
type ExplainRequest struct {
	PhotoDataURI    string        `json:"photoDataUri"`
	Determination   Determination `json:"determination"`
	ConfidenceScore float64       `json:"confidenceScore"`
}

// Explanation is the backend's justification of a verdict
type Explanation struct {
	Analysis               string `json:"analysis"`
	PotentialModifications string `json:"potentialModifications,omitempty"`
}

// Alert represents a notification about content flagged as AI-generated
type Alert struct {
	ID              string            `json:"id"`
	Modality        Modality          `json:"modality"`
	Title           string            `json:"title"`
	Message         string            `json:"message"`
	ConfidenceScore float64           `json:"confidence_score"`
	TopModel        string            `json:"top_model,omitempty"`
	Result          *AnalysisResponse `json:"result,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Digest represents a periodic summary of analysis activity
type Digest struct {
	GeneratedAt    time.Time                 `json:"generated_at"`
	Period         string                    `json:"period"` // "daily" or "weekly"
	TotalAnalyses  int                       `json:"total_analyses"`
	ByModality     map[Modality]VerdictTally `json:"by_modality"`
	FailuresByKind map[string]int            `json:"failures_by_kind"`
}

// VerdictTally counts verdicts for one modality
type VerdictTally struct {
	AIGenerated  int `json:"ai_generated"`
	HumanCreated int `json:"human_created"`
}
