package monitoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/azure/ai-content-detector/internal/analysis"
	"github.com/azure/ai-content-detector/internal/config"
	"github.com/azure/ai-content-detector/internal/models"
	"github.com/azure/ai-content-detector/internal/notifications"
)

// Service observes analyses, raises alerts for confident AI verdicts and builds periodic digests.
// Nothing about the analysed content is kept beyond counters.
type Service struct {
	config              *config.Config
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	mu                  sync.RWMutex

	// digestMu serializes digest runs so a window is sent and reset once
	digestMu sync.Mutex
	alerts   sync.WaitGroup
}

// Ensure Service implements analysis.Observer
var _ analysis.Observer = (*Service)(nil)

// Metrics holds monitoring metrics for the current digest window
type Metrics struct {
	TotalAnalyses        int                                     `json:"total_analyses"`
	LastAnalysis         time.Time                               `json:"last_analysis"`
	LastAnalysisDuration string                                  `json:"last_analysis_duration"`
	ByModality           map[models.Modality]models.VerdictTally `json:"by_modality"`
	FailuresByKind       map[string]int                          `json:"failures_by_kind"`
	ErrorCount           int                                     `json:"error_count"`
	AlertsSent           int                                     `json:"alerts_sent"`
	WindowStart          time.Time                               `json:"window_start"`
}

func newMetrics() *Metrics {
	return &Metrics{
		ByModality:     make(map[models.Modality]models.VerdictTally),
		FailuresByKind: make(map[string]int),
		WindowStart:    time.Now(),
	}
}

// NewService creates a new monitoring service
func NewService(cfg *config.Config, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		notificationService: notificationService,
		metrics:             newMetrics(),
	}
}

// ObserveAnalysis records the terminal state of an analysis
func (s *Service) ObserveAnalysis(modality models.Modality, final analysis.State, err error, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(string(modality), string(final)).Inc()
	AnalysisLatency.WithLabelValues(string(modality)).Observe(elapsed.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastAnalysis = time.Now()
	s.metrics.LastAnalysisDuration = elapsed.String()

	if err == nil {
		s.metrics.TotalAnalyses++
		return
	}

	kind := string(analysis.KindOf(err))
	if kind == "" {
		kind = "Unknown"
	}
	AnalysisFailures.WithLabelValues(string(modality), kind).Inc()
	s.metrics.FailuresByKind[kind]++
	s.metrics.ErrorCount++
}

// RecordFailure records a failure that happened before an analysis started, e.g. during normalization
func (s *Service) RecordFailure(modality models.Modality, err error) {
	kind := string(analysis.KindOf(err))
	if kind == "" {
		kind = "Unknown"
	}
	AnalysisFailures.WithLabelValues(string(modality), kind).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.FailuresByKind[kind]++
	s.metrics.ErrorCount++
}

// RecordResult tallies the verdict of a completed analysis. A confident AI verdict is
// alerted in the background so delivery never delays the caller.
func (s *Service) RecordResult(requestID string, resp *models.AnalysisResponse) {
	verdict := "human"
	if resp.IsAIGenerated {
		verdict = "ai"
	}
	Verdicts.WithLabelValues(string(resp.Modality), verdict).Inc()

	s.mu.Lock()
	tally := s.metrics.ByModality[resp.Modality]
	if resp.IsAIGenerated {
		tally.AIGenerated++
	} else {
		tally.HumanCreated++
	}
	s.metrics.ByModality[resp.Modality] = tally
	s.mu.Unlock()

	if !s.isAlertworthy(resp) {
		return
	}

	alert := buildAlert(requestID, resp)
	s.alerts.Add(1)
	go func() {
		defer s.alerts.Done()
		s.sendAlert(alert)
	}()
}

func (s *Service) sendAlert(alert *models.Alert) {
	if err := s.notificationService.SendAlert(alert); err != nil {
		AlertsSent.WithLabelValues("failed").Inc()
		logrus.WithField("request_id", alert.ID).Errorf("Failed to send alert: %v", err)
		return
	}

	AlertsSent.WithLabelValues("sent").Inc()
	s.mu.Lock()
	s.metrics.AlertsSent++
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"request_id": alert.ID,
		"modality":   alert.Modality,
		"confidence": alert.ConfidenceScore,
	}).Info("Alert sent for AI-generated content")
}

// Wait blocks until alerts already handed off have been delivered or have failed
func (s *Service) Wait() {
	s.alerts.Wait()
}

// isAlertworthy determines if a result requires immediate notification
func (s *Service) isAlertworthy(resp *models.AnalysisResponse) bool {
	if s.notificationService == nil || s.config.AlertThreshold <= 0 {
		return false
	}
	return resp.IsAIGenerated && resp.ConfidenceScore >= s.config.AlertThreshold
}

func buildAlert(requestID string, resp *models.AnalysisResponse) *models.Alert {
	alert := &models.Alert{
		ID:              requestID,
		Modality:        resp.Modality,
		Title:           fmt.Sprintf("AI-generated %s detected (%d%% confidence)", resp.Modality, resp.ConfidencePercent()),
		Message:         resp.Analysis,
		ConfidenceScore: resp.ConfidenceScore,
		Result:          resp,
		CreatedAt:       time.Now(),
	}

	var best float64
	for _, ml := range resp.DataBreakdown.ModelLikelihoods {
		if ml.Likelihood > best {
			best = ml.Likelihood
			alert.TopModel = ml.Model
		}
	}
	return alert
}

// GenerateDigest builds a digest of the current window without resetting it
func (s *Service) GenerateDigest() *models.Digest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digestLocked()
}

func (s *Service) digestLocked() *models.Digest {
	digest := &models.Digest{
		GeneratedAt:    time.Now(),
		Period:         s.config.DigestSchedule,
		TotalAnalyses:  s.metrics.TotalAnalyses,
		ByModality:     make(map[models.Modality]models.VerdictTally, len(s.metrics.ByModality)),
		FailuresByKind: make(map[string]int, len(s.metrics.FailuresByKind)),
	}
	for m, tally := range s.metrics.ByModality {
		digest.ByModality[m] = tally
	}
	for kind, n := range s.metrics.FailuresByKind {
		digest.FailuresByKind[kind] = n
	}
	return digest
}

// RunDigest sends the digest of the current window and starts a new one.
// The window is kept if delivery fails so the next run reports it.
func (s *Service) RunDigest() error {
	s.digestMu.Lock()
	defer s.digestMu.Unlock()

	start := time.Now()
	logrus.Info("Starting digest run")

	if s.notificationService == nil {
		return errors.New("no notification service configured")
	}

	s.mu.Lock()
	digest := s.digestLocked()
	s.mu.Unlock()

	if err := s.notificationService.SendDigest(digest); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	s.mu.Lock()
	s.metrics = s.carryOver(digest)
	s.mu.Unlock()

	logrus.Infof("Digest run completed in %v, reported %d analyses", time.Since(start), digest.TotalAnalyses)
	return nil
}

// carryOver starts a new window holding whatever was recorded after the digest was taken
func (s *Service) carryOver(digest *models.Digest) *Metrics {
	next := newMetrics()
	next.TotalAnalyses = max(s.metrics.TotalAnalyses-digest.TotalAnalyses, 0)
	next.LastAnalysis = s.metrics.LastAnalysis
	next.LastAnalysisDuration = s.metrics.LastAnalysisDuration

	for m, tally := range s.metrics.ByModality {
		sent := digest.ByModality[m]
		rest := models.VerdictTally{
			AIGenerated:  tally.AIGenerated - sent.AIGenerated,
			HumanCreated: tally.HumanCreated - sent.HumanCreated,
		}
		if rest.AIGenerated > 0 || rest.HumanCreated > 0 {
			next.ByModality[m] = rest
		}
	}
	for kind, n := range s.metrics.FailuresByKind {
		if rest := n - digest.FailuresByKind[kind]; rest > 0 {
			next.FailuresByKind[kind] = rest
			next.ErrorCount += rest
		}
	}
	return next
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
