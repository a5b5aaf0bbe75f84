package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/azure/ai-content-detector/internal/backend"
	"github.com/azure/ai-content-detector/internal/models"
)

// MockObserver is a mock implementation of the Observer interface
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) ObserveAnalysis(modality models.Modality, final State, err error, elapsed time.Duration) {
	m.Called(modality, final, err, elapsed)
}

// blockingBackend waits for its context before answering
type blockingBackend struct {
	gotCtxErr chan error
}

func (b *blockingBackend) Generate(ctx context.Context, prompt *backend.Prompt) ([]byte, error) {
	<-ctx.Done()
	b.gotCtxErr <- ctx.Err()
	return nil, ctx.Err()
}

func (b *blockingBackend) Model() string { return "blocking" }

func TestDispatcher_AnalyzeText(t *testing.T) {
	fake := backend.NewDemo()
	observer := &MockObserver{}
	observer.On("ObserveAnalysis", models.ModalityText, StateCompleted, nil, mock.Anything).Once()

	d := NewDispatcher(fake, WithObserver(observer))
	resp, err := d.Analyze(context.Background(), models.ModalityText, models.AnalysisRequest{Text: "The quick brown fox"})
	require.NoError(t, err)

	assert.Equal(t, models.ModalityText, resp.Modality)
	assert.False(t, resp.IsAIGenerated)
	assert.Equal(t, float64(82), resp.DataBreakdown.AILikelihood)
	assert.Len(t, resp.DataBreakdown.ModelLikelihoods, 2)

	prompt := fake.LastPrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, "analyzeTextAiDetermination", prompt.Name)
	assert.Equal(t, "AnalyzeTextAiDeterminationOutput", prompt.SchemaName)
	assert.Contains(t, prompt.Instructions, "The quick brown fox")
	assert.Contains(t, prompt.Instructions, `Set the modelUsed to "fake"`)
	assert.Nil(t, prompt.Media)

	observer.AssertExpectations(t)
}

func TestDispatcher_AnalyzeImage(t *testing.T) {
	fake := backend.NewDemo()
	d := NewDispatcher(fake)

	resp, err := d.Analyze(context.Background(), models.ModalityImage, models.AnalysisRequest{PhotoDataURI: pngDataURI})
	require.NoError(t, err)

	assert.True(t, resp.IsAIGenerated)
	assert.Equal(t, "Background signage and the subject's hands.", resp.PotentialModificationAreas)
	assert.Equal(t, []models.ModelLikelihood{{Model: "Midjourney", Likelihood: 64}, {Model: "Stable Diffusion", Likelihood: 22}},
		resp.DataBreakdown.ModelLikelihoods)

	prompt := fake.LastPrompt()
	require.NotNil(t, prompt.Media)
	assert.Equal(t, "image/png", prompt.Media.MimeType)
	assert.Equal(t, pngDataURI, prompt.Media.DataURI())
	assert.Empty(t, prompt.Text)
}

func TestDispatcher_InvalidRequestNeverCallsBackend(t *testing.T) {
	fake := backend.NewDemo()
	observer := &MockObserver{}
	observer.On("ObserveAnalysis", models.ModalityVideo, StateRejected, mock.Anything, mock.Anything).Once()

	d := NewDispatcher(fake, WithObserver(observer))
	_, err := d.Analyze(context.Background(), models.ModalityVideo, models.AnalysisRequest{PhotoDataURI: pngDataURI})

	assert.ErrorIs(t, err, KindInvalidRequest)
	assert.Equal(t, 0, fake.Calls())
	observer.AssertExpectations(t)
}

func TestDispatcher_BackendFailures(t *testing.T) {
	tests := []struct {
		name        string
		backendErr  error
		wantMessage string
	}{
		{
			name:        "Transport error",
			backendErr:  errors.New("connection refused"),
			wantMessage: "The analysis service is currently unavailable. Please try again.",
		},
		{
			name:        "Open circuit",
			backendErr:  gobreaker.ErrOpenState,
			wantMessage: "The analysis service is temporarily unavailable after repeated failures. Please try again shortly.",
		},
		{
			name:        "Unsupported modality",
			backendErr:  backend.ErrUnsupportedModality,
			wantMessage: "The configured analysis service cannot analyze this type of content.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := backend.NewDemo()
			fake.Error = tt.backendErr

			d := NewDispatcher(fake)
			resp, err := d.Analyze(context.Background(), models.ModalityText, models.AnalysisRequest{Text: "hello"})

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, KindBackendUnavailable)
			assert.ErrorIs(t, err, tt.backendErr)
			assert.Equal(t, tt.wantMessage, Message(err))
			assert.Equal(t, 1, fake.Calls())
		})
	}
}

func TestDispatcher_MalformedOutput(t *testing.T) {
	fake := backend.NewFake(`{"isAiGenerated": true}`)
	observer := &MockObserver{}
	observer.On("ObserveAnalysis", models.ModalityText, StateFailed, mock.Anything, mock.Anything).Once()

	d := NewDispatcher(fake, WithObserver(observer))
	_, err := d.Analyze(context.Background(), models.ModalityText, models.AnalysisRequest{Text: "hello"})

	assert.ErrorIs(t, err, KindMalformedResponse)
	observer.AssertExpectations(t)
}

func TestDispatcher_FillsModelUsed(t *testing.T) {
	fake := backend.NewFake(`{
		"isAiGenerated": false,
		"confidenceScore": 0.3,
		"analysis": "Human.",
		"detailedAnalysis": {},
		"dataBreakdown": {"aiLikelihood": 30, "readabilityScore": 60, "originalityScore": 70, "modelLikelihoods": []}
	}`)
	fake.ModelName = "Gemini 2.5 Flash"

	resp, err := NewDispatcher(fake).Analyze(context.Background(), models.ModalityText, models.AnalysisRequest{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Gemini 2.5 Flash", resp.ModelUsed)
}

func TestDispatcher_BackendCallSurvivesCallerCancel(t *testing.T) {
	b := &blockingBackend{gotCtxErr: make(chan error, 1)}
	d := NewDispatcher(b, WithTimeout(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Analyze(ctx, models.ModalityText, models.AnalysisRequest{Text: "hello"})

	// the call ends on the backend timeout, not on the caller's cancellation
	assert.ErrorIs(t, <-b.gotCtxErr, context.DeadlineExceeded)
	assert.ErrorIs(t, err, KindBackendUnavailable)
	assert.Equal(t, "The analysis service did not respond in time. Please try again.", Message(err))
}

func TestDispatcher_Explain(t *testing.T) {
	fake := backend.NewDemo()
	d := NewDispatcher(fake)

	exp, err := d.Explain(context.Background(), models.ExplainRequest{
		PhotoDataURI:    pngDataURI,
		Determination:   models.DeterminationHuman,
		ConfidenceScore: 0.7,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, exp.Analysis)
	assert.Empty(t, exp.PotentialModifications)

	prompt := fake.LastPrompt()
	assert.Equal(t, backend.ExplainFlowName, prompt.Name)
	assert.Contains(t, prompt.Instructions, "Determination: Human")
	assert.Contains(t, prompt.Instructions, "Confidence Score: 0.7")
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}
