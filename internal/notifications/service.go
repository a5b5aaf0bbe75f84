package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/azure/ai-content-detector/internal/config"
	"github.com/azure/ai-content-detector/internal/models"
	"github.com/azure/ai-content-detector/internal/render"
)

// Mailer sends email messages; *gomail.Dialer satisfies it
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	mailer Mailer
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		mailer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// WithMailer replaces the SMTP dialer
func (s *Service) WithMailer(m Mailer) *Service {
	s.mailer = m
	return s
}

// SendDigest sends a digest via configured notification channels
func (s *Service) SendDigest(digest *models.Digest) error {
	var htmlBody string
	if s.config.NotificationEmail != "" {
		var err error
		if htmlBody, err = buildDigestHTML(digest); err != nil {
			return fmt.Errorf("failed to build digest HTML: %w", err)
		}
	}

	subject := fmt.Sprintf("AI Content Detector Digest - %s (%d analyses)", titleCase(digest.Period), digest.TotalAnalyses)
	return s.send("digest", buildDigestMessage(digest), subject, buildDigestText(digest), htmlBody)
}

// SendAlert sends an alert for a single flagged analysis
func (s *Service) SendAlert(alert *models.Alert) error {
	var htmlBody string
	if s.config.NotificationEmail != "" && alert.Result != nil {
		var err error
		if htmlBody, err = render.CardHTML(alert.Result); err != nil {
			return fmt.Errorf("failed to build alert HTML: %w", err)
		}
	}

	return s.send("alert", buildAlertMessage(alert), alert.Title, buildAlertText(alert), htmlBody)
}

func (s *Service) send(what string, teams *TeamsMessage, subject, textBody, htmlBody string) error {
	var errors []string

	// Send to Teams if configured
	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(teams); err != nil {
			logrus.Errorf("Failed to send Teams %s: %v", what, err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Successfully sent %s to Teams", what)
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(subject, textBody, htmlBody); err != nil {
			logrus.Errorf("Failed to send %s email: %v", what, err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Successfully sent %s via email", what)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) sendEmail(subject, textBody, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func buildAlertMessage(alert *models.Alert) *TeamsMessage {
	facts := []TeamsFact{
		{Name: "Modality", Value: string(alert.Modality)},
		{Name: "Confidence", Value: fmt.Sprintf("%.0f%%", alert.ConfidenceScore*100)},
		{Name: "Detected", Value: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	if alert.TopModel != "" {
		facts = append(facts, TeamsFact{Name: "Most Likely Generator", Value: alert.TopModel})
	}

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D13438",
		Title:      alert.Title,
		Text:       alert.Message,
		Sections: []TeamsSection{{
			ActivityTitle:    render.VerdictLabel(true),
			ActivitySubtitle: alert.ID,
			Facts:            facts,
			Markdown:         true,
		}},
	}

	if alert.Result != nil && alert.Result.PotentialModificationAreas != "" {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Potential Modifications",
			ActivityText:  alert.Result.PotentialModificationAreas,
			Markdown:      true,
		})
	}

	return message
}

func buildAlertText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(alert.Title + "\n")
	text.WriteString(fmt.Sprintf("Detected: %s\n\n", alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(alert.Message + "\n")
	if alert.TopModel != "" {
		text.WriteString(fmt.Sprintf("Most likely generator: %s\n", alert.TopModel))
	}
	if alert.Result != nil && alert.Result.PotentialModificationAreas != "" {
		text.WriteString(fmt.Sprintf("Potential modifications: %s\n", alert.Result.PotentialModificationAreas))
	}
	text.WriteString(fmt.Sprintf("\nRequest ID: %s\n", alert.ID))
	text.WriteString("\n---\nThis alert was generated automatically by the AI Content Detector.\n")

	return text.String()
}

func buildDigestMessage(digest *models.Digest) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("AI Content Detector Digest - %s", titleCase(digest.Period)),
		Text:    fmt.Sprintf("Completed %d analyses in the last %s", digest.TotalAnalyses, periodNoun(digest.Period)),
	}

	facts := []TeamsFact{
		{Name: "Total Analyses", Value: fmt.Sprintf("%d", digest.TotalAnalyses)},
		{Name: "Generated", Value: digest.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	for _, m := range models.Modalities {
		tally, ok := digest.ByModality[m]
		if !ok {
			continue
		}
		facts = append(facts, TeamsFact{
			Name:  fmt.Sprintf("%s Verdicts", titleCase(string(m))),
			Value: fmt.Sprintf("%d AI / %d human", tally.AIGenerated, tally.HumanCreated),
		})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(digest.FailuresByKind) > 0 {
		var failures []TeamsFact
		for _, kind := range sortedKeys(digest.FailuresByKind) {
			failures = append(failures, TeamsFact{Name: kind, Value: fmt.Sprintf("%d", digest.FailuresByKind[kind])})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Failures",
			Facts:         failures,
			Markdown:      true,
		})
	}

	return message
}

const digestTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>AI Content Detector Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .failures { border-left: 4px solid #d13438; padding: 10px; margin: 10px 0; background-color: #fafafa; }
    </style>
</head>
<body>
    <div class="header">
        <h1>AI Content Detector Digest</h1>
        <p>{{.Period | title}} digest generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Total Analyses:</strong> {{.TotalAnalyses}}</p>
        {{range $modality, $tally := .ByModality}}
            <p><strong>{{$modality | title}}:</strong> {{$tally.AIGenerated}} likely AI-generated, {{$tally.HumanCreated}} likely human-created</p>
        {{end}}
    </div>

    {{if .FailuresByKind}}
    <div class="failures">
        <h2>Failures</h2>
        {{range $kind, $count := .FailuresByKind}}
            <p><strong>{{$kind}}:</strong> {{$count}}</p>
        {{end}}
    </div>
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by the AI Content Detector.</small></p>
</body>
</html>
`

func buildDigestHTML(digest *models.Digest) (string, error) {
	t := template.New("digest").Funcs(template.FuncMap{
		"title": func(v any) string { return titleCase(fmt.Sprint(v)) },
	})

	t, err := t.Parse(digestTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, digest); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func buildDigestText(digest *models.Digest) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("AI Content Detector Digest - %s\n", titleCase(digest.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", digest.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Analyses: %d\n", digest.TotalAnalyses))

	for _, m := range models.Modalities {
		if tally, ok := digest.ByModality[m]; ok {
			text.WriteString(fmt.Sprintf("%s: %d AI / %d human\n", titleCase(string(m)), tally.AIGenerated, tally.HumanCreated))
		}
	}

	if len(digest.FailuresByKind) > 0 {
		text.WriteString("\nFAILURES\n")
		text.WriteString("========\n")
		for _, kind := range sortedKeys(digest.FailuresByKind) {
			text.WriteString(fmt.Sprintf("%s: %d\n", kind, digest.FailuresByKind[kind]))
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by the AI Content Detector.\n")

	return text.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func periodNoun(period string) string {
	switch period {
	case "daily":
		return "day"
	case "weekly":
		return "week"
	}
	return period
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
