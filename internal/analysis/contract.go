package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/azure/ai-content-detector/internal/models"
)

// ValidateRequest checks a request against the modality's input schema.
// For media modalities it returns the decoded media.
func ValidateRequest(m models.Modality, req models.AnalysisRequest) (*models.EncodedMedia, error) {
	if !m.Valid() {
		return nil, NewError(KindInvalidRequest, "Unsupported analysis type %q; expected text, image or video.", m)
	}

	if m == models.ModalityVideo {
		return validateMedia(models.KindVideo, "videoDataUri", req.VideoDataURI)
	}
	if m.IsMedia() {
		return validateMedia(models.KindImage, "photoDataUri", req.PhotoDataURI)
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, NewError(KindInvalidRequest, "Please enter some text to analyze.")
	}
	return nil, nil
}

func validateMedia(kind models.MediaKind, field, uri string) (*models.EncodedMedia, error) {
	if uri == "" {
		return nil, NewError(KindInvalidRequest, "Please select %s or provide a URL.", kind.WithArticle())
	}

	media, err := models.ParseDataURI(uri)
	if err != nil {
		return nil, WrapError(KindInvalidRequest, err,
			"%s must be a data URI of the form 'data:<mimetype>;base64,<encoded_data>'.", field)
	}

	if !kind.Matches(media.MimeType) {
		return nil, NewError(KindInvalidRequest, "%s must contain a %s, got %q.", field, kind, media.MimeType)
	}

	if media.Size() == 0 {
		return nil, NewError(KindInvalidRequest, "%s contains no data.", field)
	}

	return &media, nil
}

// ValidateExplainRequest checks an explanation request and returns its decoded image
func ValidateExplainRequest(req models.ExplainRequest) (*models.EncodedMedia, error) {
	media, err := validateMedia(models.KindImage, "photoDataUri", req.PhotoDataURI)
	if err != nil {
		return nil, err
	}

	if req.Determination != models.DeterminationAI && req.Determination != models.DeterminationHuman {
		return nil, NewError(KindInvalidRequest, "determination must be %q or %q.", models.DeterminationAI, models.DeterminationHuman)
	}

	if req.ConfidenceScore < 0 || req.ConfidenceScore > 1 {
		return nil, NewError(KindInvalidRequest, "confidenceScore must be between 0 and 1.")
	}

	return media, nil
}

// wire types use pointers so that missing required fields can be told apart from zero values

type wireResponse struct {
	IsAIGenerated              *bool                    `json:"isAiGenerated"`
	ConfidenceScore            *float64                 `json:"confidenceScore"`
	Analysis                   *string                  `json:"analysis"`
	ModelUsed                  string                   `json:"modelUsed"`
	DetailedAnalysis           *models.DetailedAnalysis `json:"detailedAnalysis"`
	PotentialModificationAreas string                   `json:"potentialModificationAreas"`
	DataBreakdown              *wireBreakdown           `json:"dataBreakdown"`
}

type wireBreakdown struct {
	AILikelihood       *float64                  `json:"aiLikelihood"`
	DeepfakeLikelihood *float64                  `json:"deepfakeLikelihood"`
	QualityScore       *float64                  `json:"qualityScore"`
	ReadabilityScore   *float64                  `json:"readabilityScore"`
	OriginalityScore   *float64                  `json:"originalityScore"`
	ModelLikelihoods   *[]models.ModelLikelihood `json:"modelLikelihoods"`
}

type wireExplanation struct {
	Analysis               *string `json:"analysis"`
	PotentialModifications string  `json:"potentialModifications"`
}

// problems collects every schema violation found in a backend payload
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return WrapError(KindMalformedResponse, fmt.Errorf("%s", strings.Join(p, "; ")),
		"The analysis service returned an incomplete or invalid result.")
}

func (p *problems) score(name string, v *float64, lo, hi float64) {
	if v == nil {
		p.addf("missing dataBreakdown.%s", name)
		return
	}
	if *v < lo || *v > hi {
		p.addf("dataBreakdown.%s %v is outside [%v, %v]", name, *v, lo, hi)
	}
}

// ParseResponse validates a raw backend payload against the modality's output schema and
// returns the canonical response. Structurally invalid payloads fail with MalformedResponse.
func ParseResponse(m models.Modality, raw []byte) (*models.AnalysisResponse, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, WrapError(KindMalformedResponse, fmt.Errorf("empty payload"),
			"The analysis service returned an empty result.")
	}

	var w wireResponse
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, WrapError(KindMalformedResponse, err, "The analysis service returned a result that could not be read.")
	}

	var p problems
	if w.IsAIGenerated == nil {
		p.addf("missing isAiGenerated")
	}
	if w.ConfidenceScore == nil {
		p.addf("missing confidenceScore")
	} else if *w.ConfidenceScore < 0 || *w.ConfidenceScore > 1 {
		p.addf("confidenceScore %v is outside [0, 1]", *w.ConfidenceScore)
	}
	if w.Analysis == nil || strings.TrimSpace(*w.Analysis) == "" {
		p.addf("missing analysis")
	}
	if w.DetailedAnalysis == nil {
		p.addf("missing detailedAnalysis")
	}

	var likelihoods []models.ModelLikelihood
	if w.DataBreakdown == nil {
		p.addf("missing dataBreakdown")
	} else {
		b := w.DataBreakdown
		p.score("aiLikelihood", b.AILikelihood, 0, 100)
		if m == models.ModalityText {
			p.score("readabilityScore", b.ReadabilityScore, 0, 100)
			p.score("originalityScore", b.OriginalityScore, 0, 100)
		} else {
			p.score("deepfakeLikelihood", b.DeepfakeLikelihood, 0, 100)
			p.score("qualityScore", b.QualityScore, 0, 100)
		}

		if b.ModelLikelihoods == nil {
			p.addf("missing dataBreakdown.modelLikelihoods")
		} else {
			likelihoods = filterLikelihoods(*b.ModelLikelihoods, &p)
		}
	}

	if err := p.err(); err != nil {
		return nil, err
	}

	resp := &models.AnalysisResponse{
		Modality:         m,
		IsAIGenerated:    *w.IsAIGenerated,
		ConfidenceScore:  *w.ConfidenceScore,
		Analysis:         strings.TrimSpace(*w.Analysis),
		ModelUsed:        w.ModelUsed,
		DetailedAnalysis: scopeDetails(m, *w.DetailedAnalysis),
		DataBreakdown: models.DataBreakdown{
			AILikelihood:     AILikelihood(*w.ConfidenceScore),
			ModelLikelihoods: likelihoods,
		},
	}

	if !m.IsMedia() {
		resp.DataBreakdown.ReadabilityScore = w.DataBreakdown.ReadabilityScore
		resp.DataBreakdown.OriginalityScore = w.DataBreakdown.OriginalityScore
	} else {
		resp.DataBreakdown.DeepfakeLikelihood = w.DataBreakdown.DeepfakeLikelihood
		resp.DataBreakdown.QualityScore = w.DataBreakdown.QualityScore
		if resp.IsAIGenerated {
			resp.PotentialModificationAreas = strings.TrimSpace(w.PotentialModificationAreas)
		}
	}

	return resp, nil
}

// filterLikelihoods drops entries with a non-positive likelihood, keeping order.
// Entries above 100 or without a model name are schema violations.
func filterLikelihoods(in []models.ModelLikelihood, p *problems) []models.ModelLikelihood {
	out := make([]models.ModelLikelihood, 0, len(in))
	for i, ml := range in {
		if ml.Likelihood <= 0 {
			continue
		}
		if strings.TrimSpace(ml.Model) == "" {
			p.addf("dataBreakdown.modelLikelihoods[%d] has no model name", i)
			continue
		}
		if ml.Likelihood > 100 {
			p.addf("dataBreakdown.modelLikelihoods[%d] likelihood %v is above 100", i, ml.Likelihood)
			continue
		}
		out = append(out, models.ModelLikelihood{Model: strings.TrimSpace(ml.Model), Likelihood: ml.Likelihood})
	}
	return out
}

// scopeDetails keeps only the detail keys defined for the modality
func scopeDetails(m models.Modality, d models.DetailedAnalysis) models.DetailedAnalysis {
	switch m {
	case models.ModalityText:
		return models.DetailedAnalysis{
			LinguisticPatterns: d.LinguisticPatterns,
			CohesionAndFlow:    d.CohesionAndFlow,
			CommonAITraits:     d.CommonAITraits,
		}
	case models.ModalityImage:
		return models.DetailedAnalysis{
			VisualInconsistencies: d.VisualInconsistencies,
			ArtifactAnalysis:      d.ArtifactAnalysis,
			ContextualClues:       d.ContextualClues,
			EditingToolAnalysis:   d.EditingToolAnalysis,
		}
	case models.ModalityVideo:
		return models.DetailedAnalysis{
			TemporalInconsistencies: d.TemporalInconsistencies,
			ArtifactAnalysis:        d.ArtifactAnalysis,
			AudioVisualSync:         d.AudioVisualSync,
		}
	}
	return models.DetailedAnalysis{}
}

// AILikelihood converts a confidence score into the breakdown percentage
func AILikelihood(confidence float64) float64 {
	return math.Round(confidence * 100)
}

// ParseExplanation validates the payload of an explanation flow
func ParseExplanation(req models.ExplainRequest, raw []byte) (*models.Explanation, error) {
	var w wireExplanation
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, WrapError(KindMalformedResponse, err, "The analysis service returned a result that could not be read.")
	}

	if w.Analysis == nil || strings.TrimSpace(*w.Analysis) == "" {
		return nil, WrapError(KindMalformedResponse, fmt.Errorf("missing analysis"),
			"The analysis service returned an incomplete or invalid result.")
	}

	exp := &models.Explanation{Analysis: strings.TrimSpace(*w.Analysis)}
	if req.Determination == models.DeterminationAI {
		exp.PotentialModifications = strings.TrimSpace(w.PotentialModifications)
	}
	return exp, nil
}
