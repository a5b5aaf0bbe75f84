package analysis

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindInvalidFileType, http.StatusUnsupportedMediaType},
		{KindUnsupportedContentType, http.StatusUnsupportedMediaType},
		{KindWebpageNotMedia, http.StatusUnsupportedMediaType},
		{KindMediaTooLarge, http.StatusRequestEntityTooLarge},
		{KindInvalidURL, http.StatusBadRequest},
		{KindInvalidRequest, http.StatusBadRequest},
		{KindFileReadError, http.StatusUnprocessableEntity},
		{KindFetchFailed, http.StatusBadGateway},
		{KindMalformedResponse, http.StatusBadGateway},
		{KindBackendUnavailable, http.StatusServiceUnavailable},
		{Kind("Unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.HTTPStatus())
		})
	}
}

func TestKinds_AllMapToClientOrUpstreamStatus(t *testing.T) {
	assert.Len(t, Kinds, 10)
	for _, kind := range Kinds {
		status := kind.HTTPStatus()
		assert.NotEqual(t, http.StatusInternalServerError, status, "kind %s has no status mapping", kind)
		assert.GreaterOrEqual(t, status, 400, "kind %s", kind)
	}
}

func TestError_Matching(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("analyze: %w", WrapError(KindBackendUnavailable, cause, "Service down."))

	assert.ErrorIs(t, err, KindBackendUnavailable)
	assert.ErrorIs(t, err, &Error{Kind: KindBackendUnavailable})
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, KindMalformedResponse)

	assert.Equal(t, KindBackendUnavailable, KindOf(err))
	assert.Equal(t, "Service down.", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessage_Unclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, Kind(""), KindOf(err))
	assert.Equal(t, "An unexpected error occurred during analysis.", Message(err))
}
