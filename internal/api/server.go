package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/azure/ai-content-detector/internal/analysis"
	"github.com/azure/ai-content-detector/internal/models"
)

// Analyzer runs analyses; *analysis.Dispatcher satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, m models.Modality, req models.AnalysisRequest) (*models.AnalysisResponse, error)
	Explain(ctx context.Context, req models.ExplainRequest) (*models.Explanation, error)
}

// Normalizer turns uploads and URLs into encoded media; *media.Normalizer satisfies it
type Normalizer interface {
	NormalizeFile(ctx context.Context, file models.File, kind models.MediaKind) (models.EncodedMedia, error)
	NormalizeURL(ctx context.Context, rawURL string, kind models.MediaKind) (models.EncodedMedia, error)
	MaxBytes() int64
}

// Monitor records outcomes; *monitoring.Service satisfies it
type Monitor interface {
	RecordResult(requestID string, resp *models.AnalysisResponse)
	RecordFailure(modality models.Modality, err error)
	GetMetrics() string
	RunDigest() error
}

// Server is the HTTP surface of the detector
type Server struct {
	router     *mux.Router
	handler    http.Handler
	analyzer   Analyzer
	normalizer Normalizer
	monitor    Monitor
}

const requestIDHeader = "X-Request-ID"

// NewServer wires routes and middleware
func NewServer(analyzer Analyzer, normalizer Normalizer, monitor Monitor, allowedOrigins []string) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		analyzer:   analyzer,
		normalizer: normalizer,
		monitor:    monitor,
	}

	s.router.Use(requestIDMiddleware, loggingMiddleware)
	s.setupRoutes()

	s.handler = cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})(s.router)

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/analyze/text", s.handleAnalyzeText).Methods("POST")
	v1.HandleFunc("/analyze/image", s.handleAnalyzeMedia(models.ModalityImage)).Methods("POST")
	v1.HandleFunc("/analyze/video", s.handleAnalyzeMedia(models.ModalityVideo)).Methods("POST")
	v1.HandleFunc("/media/normalize", s.handleNormalize).Methods("POST")
	v1.HandleFunc("/explain", s.handleExplain).Methods("POST")

	// Manual digest trigger
	v1.HandleFunc("/digest", s.handleDigest).Methods("POST")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(analysis.WithRequestID(r.Context(), id)))
	})
}

// statusRecorder captures the status code for access logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logrus.WithFields(logrus.Fields{
			"request_id": analysis.RequestID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("HTTP request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.monitor.GetMetrics()))
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := s.monitor.RunDigest(); err != nil {
			logrus.Errorf("Manual digest trigger failed: %v", err)
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Digest triggered successfully"})
}

// Helper to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId"`
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := analysis.KindOf(err)
	status := kind.HTTPStatus()
	if kind == "" {
		logrus.WithField("request_id", analysis.RequestID(r.Context())).Errorf("Unclassified error: %v", err)
	}

	respondJSON(w, status, ErrorResponse{
		Error:     analysis.Message(err),
		Kind:      string(kind),
		RequestID: analysis.RequestID(r.Context()),
	})
}
