package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/azure/ai-content-detector/internal/models"
)

const cardTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Card.Label}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .verdict { padding: 20px; border-radius: 5px; color: white; text-align: center; }
        .destructive { background-color: #d13438; }
        .success { background-color: #107c10; }
        .confidence { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .bar { background-color: #e1dfdd; height: 12px; border-radius: 6px; }
        .bar-fill { background-color: #0078d4; height: 12px; border-radius: 6px; }
        .section { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .section-title { font-weight: bold; margin-bottom: 5px; }
        .gauges td { text-align: center; padding: 0 15px; }
        .gauge-value { font-size: 1.6em; font-weight: bold; }
        .dot { display: inline-block; width: 8px; height: 8px; border-radius: 4px; margin-right: 6px; }
    </style>
</head>
<body>
    <div class="verdict {{.Card.Tone}}">
        <h1>{{.Card.Headline}}</h1>
        <p>{{.Card.Label}} ({{.Modality}})</p>
    </div>

    <div class="confidence">
        <p><strong>CONFIDENCE</strong> {{.Card.Confidence}}%</p>
        <div class="bar"><div class="bar-fill" style="width: {{.Card.Confidence}}%"></div></div>
    </div>

    {{range .Card.Sections}}
    <div class="section">
        <div class="section-title">{{.Title}}</div>
        <p>{{.Content}}</p>
    </div>
    {{end}}

    {{range .Details}}{{if ne .Title "Potential Modifications"}}
    <div class="section">
        <div class="section-title">{{.Title}}</div>
        <p>{{.Content}}</p>
    </div>
    {{end}}{{end}}

    <h2>{{.Panel.Title}}</h2>
    <p>{{.Panel.Description}}</p>
    <table class="gauges"><tr>
    {{range .Panel.Gauges}}<td><div class="gauge-value">{{.Value}}%</div><div>{{.Label}}</div></td>{{end}}
    </tr></table>

    {{if .Panel.Models}}
    <h3>Model Likeliness</h3>
    {{range .Panel.Models}}
    <p><span class="dot" style="background-color: {{.Color.Hex | css}}"></span>{{.Model}} <code>{{.Likelihood}}%</code></p>
    {{end}}
    {{end}}

    {{if .ModelUsed}}<hr><p><small>Analyzed with {{.ModelUsed}}.</small></p>{{end}}
</body>
</html>
`

var cardHTML = template.Must(template.New("card").Funcs(template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(s) },
}).Parse(cardTemplate))

type cardView struct {
	Modality  models.Modality
	ModelUsed string
	Card      Card
	Details   []Section
	Panel     Panel
}

// CardHTML renders a standalone HTML document of the verdict card and its breakdown
func CardHTML(resp *models.AnalysisResponse) (string, error) {
	view := cardView{
		Modality:  resp.Modality,
		ModelUsed: resp.ModelUsed,
		Card:      NewCard(resp),
		Details:   Details(resp),
		Panel:     Gauges(resp),
	}

	var buf bytes.Buffer
	if err := cardHTML.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render card: %w", err)
	}
	return buf.String(), nil
}
