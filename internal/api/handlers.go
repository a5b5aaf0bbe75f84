package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/azure/ai-content-detector/internal/analysis"
	"github.com/azure/ai-content-detector/internal/media"
	"github.com/azure/ai-content-detector/internal/models"
	"github.com/azure/ai-content-detector/internal/render"
)

// View names accepted in ?view=
const (
	ViewNone   = ""
	ViewChat   = "chat"
	ViewCard   = "card"
	ViewGauges = "gauges"
)

// AnalysisEnvelope is the body of a successful analysis
type AnalysisEnvelope struct {
	RequestID string                   `json:"requestId"`
	Modality  models.Modality          `json:"modality"`
	Result    *models.AnalysisResponse `json:"result"`
	View      any                      `json:"view,omitempty"`
}

// MediaRequest is the JSON body of an image or video analysis
type MediaRequest struct {
	PhotoDataURI string `json:"photoDataUri,omitempty"`
	VideoDataURI string `json:"videoDataUri,omitempty"`
	URL          string `json:"url,omitempty"`
}

// NormalizeRequest is the body of a normalization request
type NormalizeRequest struct {
	URL  string           `json:"url"`
	Kind models.MediaKind `json:"kind,omitempty"`
}

// NormalizeResponse carries normalized media
type NormalizeResponse struct {
	DataURI  string `json:"dataUri"`
	MimeType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// bodyLimit leaves room for base64 inflation and the JSON envelope around the largest accepted media
func (s *Server) bodyLimit() int64 {
	return s.normalizer.MaxBytes()/3*4 + 64<<10
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	view, err := parseView(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req models.AnalysisRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	s.analyze(w, r, models.ModalityText, models.AnalysisRequest{Text: req.Text}, view)
}

func (s *Server) handleAnalyzeMedia(m models.Modality) http.HandlerFunc {
	kind, _ := models.KindFor(m)

	return func(w http.ResponseWriter, r *http.Request) {
		view, err := parseView(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		dataURI, err := s.mediaInput(w, r, m, kind)
		if err != nil {
			s.monitor.RecordFailure(m, err)
			respondError(w, r, err)
			return
		}

		req := models.AnalysisRequest{PhotoDataURI: dataURI}
		if m == models.ModalityVideo {
			req = models.AnalysisRequest{VideoDataURI: dataURI}
		}
		s.analyze(w, r, m, req, view)
	}
}

// mediaInput resolves a multipart upload, a URL or an inline data URI into a data URI
func (s *Server) mediaInput(w http.ResponseWriter, r *http.Request, m models.Modality, kind models.MediaKind) (string, error) {
	if isMultipart(r) {
		return s.uploadedMedia(w, r, kind)
	}

	var body MediaRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		return "", err
	}

	if body.URL != "" {
		encoded, err := s.normalizer.NormalizeURL(r.Context(), body.URL, kind)
		if err != nil {
			return "", err
		}
		return encoded.DataURI(), nil
	}

	if m == models.ModalityVideo {
		return body.VideoDataURI, nil
	}
	return body.PhotoDataURI, nil
}

func (s *Server) uploadedMedia(w http.ResponseWriter, r *http.Request, kind models.MediaKind) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.normalizer.MaxBytes()+64<<10)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if tooLarge(err) {
			return "", s.tooLarge()
		}
		return "", analysis.WrapError(analysis.KindFileReadError, err, "Failed to read the uploaded form.")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", analysis.WrapError(analysis.KindInvalidRequest, err, "Please select %s or provide a URL.", kind.WithArticle())
	}
	defer file.Close()

	encoded, err := s.normalizer.NormalizeFile(r.Context(), models.File{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Reader:   file,
	}, kind)
	if err != nil {
		return "", err
	}
	return encoded.DataURI(), nil
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, m models.Modality, req models.AnalysisRequest, view string) {
	resp, err := s.analyzer.Analyze(r.Context(), m, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	requestID := analysis.RequestID(r.Context())
	s.monitor.RecordResult(requestID, resp)

	respondJSON(w, http.StatusOK, AnalysisEnvelope{
		RequestID: requestID,
		Modality:  m,
		Result:    resp,
		View:      buildView(view, resp),
	})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if req.Kind != "" && req.Kind != models.KindImage && req.Kind != models.KindVideo {
		respondError(w, r, analysis.NewError(analysis.KindInvalidRequest, "kind must be %q or %q.", models.KindImage, models.KindVideo))
		return
	}

	encoded, err := s.normalizer.NormalizeURL(r.Context(), req.URL, req.Kind)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, NormalizeResponse{
		DataURI:  encoded.DataURI(),
		MimeType: encoded.MimeType,
		Size:     encoded.Size(),
	})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req models.ExplainRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	exp, err := s.analyzer.Explain(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, exp)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit())

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if tooLarge(err) {
			return s.tooLarge()
		}
		return analysis.WrapError(analysis.KindInvalidRequest, err, "The request body must be valid JSON.")
	}
	return nil
}

func (s *Server) tooLarge() error {
	return analysis.NewError(analysis.KindMediaTooLarge, "The request is larger than the %s limit.", media.FormatLimit(s.normalizer.MaxBytes()))
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func parseView(r *http.Request) (string, error) {
	view := r.URL.Query().Get("view")
	switch view {
	case ViewNone, ViewChat, ViewCard, ViewGauges:
		return view, nil
	}
	return "", analysis.NewError(analysis.KindInvalidRequest, "view must be %q, %q or %q.", ViewChat, ViewCard, ViewGauges)
}

func buildView(view string, resp *models.AnalysisResponse) any {
	switch view {
	case ViewChat:
		return render.Chat(resp)
	case ViewCard:
		return render.NewCard(resp)
	case ViewGauges:
		return render.Gauges(resp)
	}
	return nil
}
