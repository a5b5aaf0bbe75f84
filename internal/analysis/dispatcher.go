package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/azure/ai-content-detector/internal/backend"
	"github.com/azure/ai-content-detector/internal/models"
)

const defaultBackendTimeout = 2 * time.Minute

// State is a step of a single analysis invocation.
// Idle -> Validating -> Rejected | Dispatching -> Failed | Dispatched -> Parsing -> Failed | Completed
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateRejected    State = "rejected"
	StateDispatching State = "dispatching"
	StateDispatched  State = "dispatched"
	StateParsing     State = "parsing"
	StateFailed      State = "failed"
	StateCompleted   State = "completed"
)

// Observer is notified once per invocation with its terminal state
type Observer interface {
	ObserveAnalysis(modality models.Modality, final State, err error, elapsed time.Duration)
}

// Dispatcher validates requests, calls the backend and validates its output.
// Each call is independent; the dispatcher holds no per-request state.
type Dispatcher struct {
	backend  backend.Backend
	timeout  time.Duration
	observer Observer
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithTimeout bounds each backend call
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithObserver registers an observer for terminal states
func WithObserver(o Observer) Option {
	return func(disp *Dispatcher) {
		disp.observer = o
	}
}

// NewDispatcher creates a dispatcher over the given backend
func NewDispatcher(b backend.Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: b,
		timeout: defaultBackendTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// invocation tracks the state machine of one call
type invocation struct {
	modality models.Modality
	state    State
	start    time.Time
	log      *logrus.Entry
}

func (d *Dispatcher) begin(ctx context.Context, m models.Modality, flow string) *invocation {
	inv := &invocation{
		modality: m,
		state:    StateIdle,
		start:    time.Now(),
		log: logrus.WithFields(logrus.Fields{
			"request_id": RequestID(ctx),
			"flow":       flow,
		}),
	}
	inv.to(StateValidating)
	return inv
}

func (inv *invocation) to(s State) {
	inv.log.WithField("from", inv.state).WithField("to", s).Debug("Analysis state transition")
	inv.state = s
}

func (d *Dispatcher) finish(inv *invocation, final State, err error) {
	inv.to(final)
	elapsed := time.Since(inv.start)

	entry := inv.log.WithField("duration", elapsed.String())
	if err != nil {
		entry.WithField("kind", KindOf(err)).Warnf("Analysis %s: %v", final, err)
	} else {
		entry.Info("Analysis completed")
	}

	if d.observer != nil {
		d.observer.ObserveAnalysis(inv.modality, final, err, elapsed)
	}
}

// Analyze runs a single analysis for the modality
func (d *Dispatcher) Analyze(ctx context.Context, m models.Modality, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	inv := d.begin(ctx, m, backend.FlowName(m))

	media, err := ValidateRequest(m, req)
	if err != nil {
		d.finish(inv, StateRejected, err)
		return nil, err
	}

	data := promptData{Model: d.backend.Model(), Text: req.Text}
	if media != nil {
		data.MimeType = media.MimeType
	}
	instructions, err := renderPrompt(string(m), data)
	if err != nil {
		d.finish(inv, StateFailed, err)
		return nil, err
	}

	prompt := &backend.Prompt{
		Name:         backend.FlowName(m),
		Modality:     m,
		Instructions: instructions,
		Media:        media,
		SchemaName:   SchemaName(m),
		Schema:       OutputSchema(m),
	}
	if !m.IsMedia() {
		prompt.Text = req.Text
	}

	raw, err := d.dispatch(ctx, inv, prompt)
	if err != nil {
		d.finish(inv, StateFailed, err)
		return nil, err
	}

	inv.to(StateParsing)
	resp, err := ParseResponse(m, raw)
	if err != nil {
		d.finish(inv, StateFailed, err)
		return nil, err
	}

	if resp.ModelUsed == "" {
		resp.ModelUsed = d.backend.Model()
	}

	d.finish(inv, StateCompleted, nil)
	return resp, nil
}

// Explain asks the backend to justify an existing image determination
func (d *Dispatcher) Explain(ctx context.Context, req models.ExplainRequest) (*models.Explanation, error) {
	inv := d.begin(ctx, models.ModalityImage, backend.ExplainFlowName)

	media, err := ValidateExplainRequest(req)
	if err != nil {
		d.finish(inv, StateRejected, err)
		return nil, err
	}

	instructions, err := renderPrompt("explain", promptData{
		Model:           d.backend.Model(),
		MimeType:        media.MimeType,
		Determination:   req.Determination,
		ConfidenceScore: req.ConfidenceScore,
	})
	if err != nil {
		d.finish(inv, StateFailed, err)
		return nil, err
	}

	raw, err := d.dispatch(ctx, inv, &backend.Prompt{
		Name:         backend.ExplainFlowName,
		Modality:     models.ModalityImage,
		Instructions: instructions,
		Media:        media,
		SchemaName:   explainSchemaName,
		Schema:       explainSchema(),
	})
	if err != nil {
		d.finish(inv, StateFailed, err)
		return nil, err
	}

	inv.to(StateParsing)
	exp, err := ParseExplanation(req, raw)
	if err != nil {
		d.finish(inv, StateFailed, err)
		return nil, err
	}

	d.finish(inv, StateCompleted, nil)
	return exp, nil
}

// dispatch performs the single backend round-trip. The call is detached from the caller's
// cancellation and runs until it completes or the backend timeout elapses.
func (d *Dispatcher) dispatch(ctx context.Context, inv *invocation, prompt *backend.Prompt) ([]byte, error) {
	inv.to(StateDispatching)

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	raw, err := d.backend.Generate(callCtx, prompt)
	if err != nil {
		return nil, unavailable(err)
	}

	inv.to(StateDispatched)
	return raw, nil
}

func unavailable(err error) *Error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return WrapError(KindBackendUnavailable, err,
			"The analysis service is temporarily unavailable after repeated failures. Please try again shortly.")
	case errors.Is(err, backend.ErrUnsupportedModality):
		return WrapError(KindBackendUnavailable, err, "The configured analysis service cannot analyze this type of content.")
	case errors.Is(err, context.DeadlineExceeded):
		return WrapError(KindBackendUnavailable, err, "The analysis service did not respond in time. Please try again.")
	}
	return WrapError(KindBackendUnavailable, err, "The analysis service is currently unavailable. Please try again.")
}

type requestIDKey struct{}

// WithRequestID attaches a request ID used in logs
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID attached to ctx, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
