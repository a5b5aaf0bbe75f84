package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/ai-content-detector/internal/backend"
	"github.com/azure/ai-content-detector/internal/config"
	"github.com/azure/ai-content-detector/internal/models"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func setup(t *testing.T) {
	t.Helper()
	t.Setenv("BACKEND", "fake")
	t.Setenv("DIGEST_SCHEDULE", "off")
	t.Setenv("ALERT_THRESHOLD", "0")
	color.NoColor = true
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Text(t *testing.T) {
	setup(t)

	code, out, _ := runCLI(t, "-text", "The quick brown fox jumps over the lazy dog.")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "THIS IS HUMAN")
	assert.Contains(t, out, "82%")
}

func TestRun_FileAsJSON(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o644))

	code, out, stderr := runCLI(t, "-file", path, "-json")
	require.Equal(t, 0, code, stderr)

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, models.ModalityImage, resp.Modality)
	assert.True(t, resp.IsAIGenerated)
}

func TestRun_SniffsFileWithoutExtension(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o644))

	code, out, stderr := runCLI(t, "-file", path, "-view", "card")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, `"headline": "THIS IS AI"`)
}

func TestRun_Explain(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o644))

	code, out, stderr := runCLI(t, "-file", path, "-explain")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Potential Modifications")
	assert.Contains(t, out, "Sky region and reflections.")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "No input",
			args:       nil,
			wantCode:   2,
			wantStderr: "exactly one of",
		},
		{
			name:       "Two inputs",
			args:       []string{"-text", "hi", "-url", "https://example.com/a.png"},
			wantCode:   2,
			wantStderr: "exactly one of",
		},
		{
			name:       "Unknown view",
			args:       []string{"-text", "hi", "-view", "poster"},
			wantCode:   2,
			wantStderr: "unknown view",
		},
		{
			name:       "Invalid URL",
			args:       []string{"-url", "not a url"},
			wantCode:   1,
			wantStderr: "Error:",
		},
		{
			name:       "Missing file",
			args:       []string{"-file", "/does/not/exist.png"},
			wantCode:   1,
			wantStderr: "Failed to read the selected file.",
		},
		{
			name:       "Explain text",
			args:       []string{"-text", "hi", "-explain"},
			wantCode:   1,
			wantStderr: "only available for images",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)

			code, _, stderr := runCLI(t, tt.args...)

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantStderr)
		})
	}
}

func TestParseFlags_KindInference(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-url", "https://example.com/clip", "-kind", "video"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "video", opts.kind)

	_, err = parseFlags([]string{"-url", "https://example.com/clip", "-kind", "audio"}, &stderr)
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	base := config.Config{BackendURL: "http://localhost:9000", BackendAPIKey: "key", BreakerFailures: 3}

	tests := []struct {
		name    string
		backend string
		check   func(t *testing.T, b backend.Backend)
		wantErr bool
	}{
		{
			name:    "Oracle behind breaker",
			backend: config.BackendOracle,
			check:   func(t *testing.T, b backend.Backend) { assert.IsType(t, &backend.Breaker{}, b) },
		},
		{
			name:    "OpenAI behind breaker",
			backend: config.BackendOpenAI,
			check:   func(t *testing.T, b backend.Backend) { assert.IsType(t, &backend.Breaker{}, b) },
		},
		{
			name:    "Fake",
			backend: config.BackendFake,
			check:   func(t *testing.T, b backend.Backend) { assert.IsType(t, &backend.FakeBackend{}, b) },
		},
		{
			name:    "Unknown",
			backend: "gemini",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Backend = tt.backend

			b, err := newBackend(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			tt.check(t, b)
		})
	}
}
