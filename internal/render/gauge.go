package render

import (
	"math"

	"github.com/azure/ai-content-detector/internal/models"
)

// Color is a palette token. Hex is the value used where tokens cannot be resolved (HTML, terminal).
type Color struct {
	Token string `json:"token"`
	Hex   string `json:"hex"`
}

var (
	chart1     = Color{Token: "chart-1", Hex: "#e76e50"}
	chart2     = Color{Token: "chart-2", Hex: "#2a9d90"}
	chart3     = Color{Token: "chart-3", Hex: "#274754"}
	chart4     = Color{Token: "chart-4", Hex: "#e8c468"}
	chart5     = Color{Token: "chart-5", Hex: "#f4a462"}
	foreground = Color{Token: "foreground", Hex: "#0a0a0a"}
)

// modelColors assigns a palette colour to well-known generators
var modelColors = map[string]Color{
	"Midjourney":       chart1,
	"DALL-E":           chart2,
	"4o":               chart3,
	"GAN":              chart4,
	"Stable Diffusion": chart5,
	"Adobe Firefly":    chart1,
	"Flux":             chart2,
	"GPT-3":            chart1,
	"GPT-4":            chart2,
	"Gemini":           chart3,
	"Claude":           chart4,
	"Llama":            chart5,
	"Sora":             chart1,
	"Veo":              chart2,
	"Kling":            chart3,
	"Gen-2":            chart4,
}

// ModelColor returns the palette colour of a generator, or the foreground colour
func ModelColor(model string) Color {
	if c, ok := modelColors[model]; ok {
		return c
	}
	return foreground
}

// Gauge is a single 0-100 dial
type Gauge struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ModelRow is one line of the model likeliness list
type ModelRow struct {
	Model      string `json:"model"`
	Likelihood int    `json:"likelihood"`
	Color      Color  `json:"color"`
}

// Panel is the data breakdown presentation
type Panel struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Gauges      []Gauge    `json:"gauges"`
	Models      []ModelRow `json:"models"`
}

// Gauges builds the data breakdown panel of a response
func Gauges(resp *models.AnalysisResponse) Panel {
	b := resp.DataBreakdown
	panel := Panel{
		Title:       "Data Breakdown",
		Description: "A detailed analysis of various metrics.",
		Models:      make([]ModelRow, 0, len(b.ModelLikelihoods)),
	}

	switch {
	case b.DeepfakeLikelihood != nil:
		panel.Gauges = []Gauge{
			{Label: "AI", Value: percent(b.AILikelihood)},
			{Label: "Deepfake", Value: percent(deref(b.DeepfakeLikelihood))},
			{Label: "Quality", Value: percent(deref(b.QualityScore))},
		}
	case b.ReadabilityScore != nil:
		panel.Gauges = []Gauge{
			{Label: "AI", Value: percent(b.AILikelihood)},
			{Label: "Readability", Value: percent(deref(b.ReadabilityScore))},
			{Label: "Originality", Value: percent(deref(b.OriginalityScore))},
		}
	default:
		panel.Gauges = []Gauge{}
	}

	for _, ml := range b.ModelLikelihoods {
		panel.Models = append(panel.Models, ModelRow{
			Model:      ml.Model,
			Likelihood: percent(ml.Likelihood),
			Color:      ModelColor(ml.Model),
		})
	}

	return panel
}

func percent(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
