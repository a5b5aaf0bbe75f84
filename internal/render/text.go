package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/azure/ai-content-detector/internal/models"
)

var (
	aiStyle      = color.New(color.FgHiRed, color.Bold)
	humanStyle   = color.New(color.FgHiGreen, color.Bold)
	titleStyle   = color.New(color.FgHiBlue, color.Bold)
	mutedStyle   = color.New(color.FgHiBlack)
	percentStyle = color.New(color.FgHiYellow, color.Bold)
)

// WriteText writes a terminal report of a response. Colour follows fatih/color's
// NoColor detection, so output to a pipe is plain.
func WriteText(w io.Writer, resp *models.AnalysisResponse) error {
	card := NewCard(resp)

	verdict := humanStyle
	if resp.IsAIGenerated {
		verdict = aiStyle
	}

	verdict.Fprintf(w, "%s\n", card.Headline)
	mutedStyle.Fprintf(w, "%s | %s", card.Label, resp.Modality)
	if resp.ModelUsed != "" {
		mutedStyle.Fprintf(w, " | %s", resp.ModelUsed)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\nCONFIDENCE %s %s\n", bar(card.Confidence, 30), percentStyle.Sprintf("%d%%", card.Confidence))

	titleStyle.Fprintln(w, "\nAnalysis")
	fmt.Fprintln(w, resp.Analysis)

	for _, s := range Details(resp) {
		titleStyle.Fprintf(w, "\n%s\n", s.Title)
		fmt.Fprintln(w, s.Content)
	}

	panel := Gauges(resp)
	titleStyle.Fprintf(w, "\n%s\n", panel.Title)

	gauges := tablewriter.NewWriter(w)
	header := make([]string, 0, len(panel.Gauges))
	values := make([]string, 0, len(panel.Gauges))
	for _, g := range panel.Gauges {
		header = append(header, g.Label)
		values = append(values, fmt.Sprintf("%d%%", g.Value))
	}
	if err := gauges.Append(header); err != nil {
		return fmt.Errorf("append gauge header: %w", err)
	}
	if err := gauges.Append(values); err != nil {
		return fmt.Errorf("append gauge values: %w", err)
	}
	if err := gauges.Render(); err != nil {
		return fmt.Errorf("render gauges: %w", err)
	}

	if len(panel.Models) == 0 {
		return nil
	}

	titleStyle.Fprintln(w, "\nModel Likeliness")
	table := tablewriter.NewWriter(w)
	if err := table.Append([]string{"Model", "Likelihood"}); err != nil {
		return fmt.Errorf("append model header: %w", err)
	}
	for _, row := range panel.Models {
		if err := table.Append([]string{row.Model, fmt.Sprintf("%d%%", row.Likelihood)}); err != nil {
			return fmt.Errorf("append model row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render models: %w", err)
	}
	return nil
}

// WriteExplanation writes a terminal rendering of an explanation
func WriteExplanation(w io.Writer, exp *models.Explanation) {
	titleStyle.Fprintln(w, "Analysis")
	fmt.Fprintln(w, exp.Analysis)
	if exp.PotentialModifications != "" {
		titleStyle.Fprintln(w, "\nPotential Modifications")
		fmt.Fprintln(w, exp.PotentialModifications)
	}
}

func bar(value, width int) string {
	filled := value * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
