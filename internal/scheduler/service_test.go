package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/azure/ai-content-detector/internal/config"
)

// MockDigestRunner is a mock implementation of DigestRunner
type MockDigestRunner struct {
	mock.Mock
}

func (m *MockDigestRunner) RunDigest() error {
	args := m.Called()
	return args.Error(0)
}

func TestCronExpression(t *testing.T) {
	tests := []struct {
		schedule string
		expected string
		wantErr  bool
	}{
		{schedule: "daily", expected: "0 0 9 * * *"},
		{schedule: "weekly", expected: "0 0 9 * * MON"},
		{schedule: "hourly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			expr, err := CronExpression(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, expr)
		})
	}
}

func TestService_Start(t *testing.T) {
	runner := &MockDigestRunner{}

	svc := NewService(&config.Config{DigestSchedule: "weekly", TimeZone: "Europe/Berlin"}, runner)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	assert.Equal(t, 1, svc.Entries())
}

func TestService_StartOff(t *testing.T) {
	svc := NewService(&config.Config{DigestSchedule: "off", TimeZone: "UTC"}, &MockDigestRunner{})
	require.NoError(t, svc.Start())
	assert.Equal(t, 0, svc.Entries())
}

func TestService_runDigest(t *testing.T) {
	runner := &MockDigestRunner{}
	runner.On("RunDigest").Return(errors.New("smtp down")).Once()

	svc := NewService(&config.Config{DigestSchedule: "daily", TimeZone: "UTC"}, runner)
	svc.runDigest()

	runner.AssertExpectations(t)
}
